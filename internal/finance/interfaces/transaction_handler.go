package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
	"github.com/sebuszqo/FamilyFinance/internal/finance/application"
	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FamilyFinance/internal/finance/errors"
)

type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, transaction *domain.Transaction) error
	CreateTransactionsBulk(ctx context.Context, transactions []*domain.Transaction, workspaceID, userID string) error
	GetTransaction(ctx context.Context, workspaceID, transactionID string) (*domain.Transaction, error)
	GetTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	UpdateTransaction(ctx context.Context, transaction *domain.Transaction) error
	DeleteTransaction(ctx context.Context, workspaceID, transactionID string) error
	GetTransactionSummary(ctx context.Context, workspaceID string, startDate, endDate time.Time) (map[int]application.TransactionSummary, error)
	GetTransactionSummaryByCategory(ctx context.Context, workspaceID string, startDate, endDate time.Time, transactionType string) ([]domain.TransactionByCategorySummary, error)
}

type ProjectionServiceInterface interface {
	Upcoming(ctx context.Context, workspaceID string, today time.Time, days int) ([]domain.UpcomingTransaction, error)
	ProjectedBalance(ctx context.Context, workspaceID string, today time.Time, days int) (*domain.Projection, error)
	Occurrences(ctx context.Context, workspaceID, transactionID string, today time.Time, days int) ([]string, error)
}

type TransactionHandler struct {
	service      TransactionServiceInterface
	projections  ProjectionServiceInterface
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
	now          func() time.Time
}

func NewTransactionHandler(
	service TransactionServiceInterface,
	projections ProjectionServiceInterface,
	respondJSON api.RespondJSONFunc,
	respondError api.RespondErrorFunc,
) *TransactionHandler {
	if service == nil || projections == nil {
		log.Fatal().Msg("Services must not be nil")
		return nil
	}
	if respondJSON == nil || respondError == nil {
		log.Fatal().Msg("Response functions must not be nil")
		return nil
	}
	return &TransactionHandler{
		service:      service,
		projections:  projections,
		respondJSON:  respondJSON,
		respondError: respondError,
		now:          time.Now,
	}
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var transaction domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&transaction); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transaction.WorkspaceID = r.PathValue("workspaceID")
	transaction.UserID = userID
	if err := h.service.CreateTransaction(r.Context(), &transaction); err != nil {
		if financeErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if financeErrors.IsConflict(err) {
			h.respondError(w, http.StatusConflict, "Transaction already exists")
			return
		}
		log.Error().Err(err).Msg("Error during transaction creation")
		h.respondError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	h.respondJSON(w, http.StatusCreated, api.Success("Transaction successfully created.", transaction))
}

func (h *TransactionHandler) CreateTransactionsBulk(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Transactions []*domain.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid request body - no transactions provided")
		return
	}

	if err := h.service.CreateTransactionsBulk(r.Context(), req.Transactions, r.PathValue("workspaceID"), userID); err != nil {
		var validationErrors *financeErrors.ValidationErrors
		if errors.As(err, &validationErrors) {
			h.respondError(w, http.StatusBadRequest, "Validation errors occurred", validationErrors.Messages())
			return
		}
		if financeErrors.IsConflict(err) {
			h.respondError(w, http.StatusConflict, "Transaction already exists")
			return
		}
		log.Error().Err(err).Msg("Error during bulk transaction creation")
		h.respondError(w, http.StatusInternalServerError, "Failed to create transactions")
		return
	}
	h.respondJSON(w, http.StatusCreated, api.Success("Transactions successfully created.", req.Transactions))
}

func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	transactionType := r.URL.Query().Get("type")
	if transactionType != "" && !domain.IsValidTransactionType(transactionType) {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction type")
		return
	}

	startDate, endDate, msg := api.DateRange(r, h.now())
	if msg != "" {
		h.respondError(w, http.StatusBadRequest, msg)
		return
	}

	limit, page := 20, 1
	var err error
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid limit value")
			return
		}
	}
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err = strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid page value")
			return
		}
	}

	transactions, err := h.service.GetTransactions(r.Context(), domain.TransactionFilter{
		WorkspaceID: r.PathValue("workspaceID"),
		Type:        transactionType,
		StartDate:   startDate,
		EndDate:     endDate,
		Limit:       limit,
		Page:        page,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving transactions")
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, api.Success("Transactions retrieved successfully.", transactions))
}

func (h *TransactionHandler) transactionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("transactionID")
	if _, err := uuid.Parse(id); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return "", false
	}
	return id, true
}

func (h *TransactionHandler) handleLookupError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, financeErrors.ErrTransactionNotFound):
		h.respondError(w, http.StatusNotFound, "Transaction not found")
	case financeErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Error during transaction " + action)
		h.respondError(w, http.StatusInternalServerError, "Failed to "+action+" transaction")
	}
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}
	transaction, err := h.service.GetTransaction(r.Context(), r.PathValue("workspaceID"), id)
	if err != nil {
		h.handleLookupError(w, err, "retrieve")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Transaction retrieved successfully.", transaction))
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}
	var transaction domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&transaction); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	transaction.ID = id
	transaction.WorkspaceID = r.PathValue("workspaceID")

	if err := h.service.UpdateTransaction(r.Context(), &transaction); err != nil {
		h.handleLookupError(w, err, "update")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Transaction successfully updated.", transaction))
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), r.PathValue("workspaceID"), id); err != nil {
		h.handleLookupError(w, err, "delete")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Transaction successfully deleted.", nil))
}

func (h *TransactionHandler) GetTransactionSummary(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, msg := api.DateRange(r, h.now())
	if msg != "" {
		h.respondError(w, http.StatusBadRequest, msg)
		return
	}
	summary, err := h.service.GetTransactionSummary(r.Context(), r.PathValue("workspaceID"), startDate, endDate)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving transaction summary")
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve transaction summary")
		return
	}

	h.respondJSON(w, http.StatusOK, api.Success("Transactions summary retrieved successfully.", summary))
}

func (h *TransactionHandler) GetTransactionSummaryByCategory(w http.ResponseWriter, r *http.Request) {
	transactionType := r.URL.Query().Get("type")
	if !domain.IsValidTransactionType(transactionType) {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction type")
		return
	}

	startDate, endDate, msg := api.DateRange(r, h.now())
	if msg != "" {
		h.respondError(w, http.StatusBadRequest, msg)
		return
	}

	summary, err := h.service.GetTransactionSummaryByCategory(r.Context(), r.PathValue("workspaceID"), startDate, endDate, transactionType)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving category summary")
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve category summary")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Category summary retrieved successfully.", summary))
}

// parseDays reads the optional "days" query parameter. Zero means the
// default window.
func parseDays(r *http.Request) (int, bool) {
	s := r.URL.Query().Get("days")
	if s == "" {
		return 0, true
	}
	days, err := strconv.Atoi(s)
	if err != nil || days <= 0 {
		return 0, false
	}
	return days, true
}

func (h *TransactionHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid days value")
		return
	}
	upcoming, err := h.projections.Upcoming(r.Context(), r.PathValue("workspaceID"), h.now(), days)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving upcoming transactions")
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve upcoming transactions")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Upcoming transactions retrieved successfully.", upcoming))
}

func (h *TransactionHandler) GetProjectedBalance(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid days value")
		return
	}
	projection, err := h.projections.ProjectedBalance(r.Context(), r.PathValue("workspaceID"), h.now(), days)
	if err != nil {
		log.Error().Err(err).Msg("Error projecting balance")
		h.respondError(w, http.StatusInternalServerError, "Failed to project balance")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Projected balance retrieved successfully.", projection))
}

func (h *TransactionHandler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}
	days, ok := parseDays(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid days value")
		return
	}
	occurrences, err := h.projections.Occurrences(r.Context(), r.PathValue("workspaceID"), id, h.now(), days)
	if err != nil {
		h.handleLookupError(w, err, "retrieve")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Occurrences retrieved successfully.", occurrences))
}
