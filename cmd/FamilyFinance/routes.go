package main

import (
	"net/http"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/assistant"
	"github.com/sebuszqo/FamilyFinance/internal/billing"
	"github.com/sebuszqo/FamilyFinance/internal/budget"
	"github.com/sebuszqo/FamilyFinance/internal/education"
	"github.com/sebuszqo/FamilyFinance/internal/finance/interfaces"
	"github.com/sebuszqo/FamilyFinance/internal/goal"
	"github.com/sebuszqo/FamilyFinance/internal/insights"
	investments "github.com/sebuszqo/FamilyFinance/internal/investment"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
	"github.com/sebuszqo/FamilyFinance/internal/workspace"
)

type Server struct {
	router http.Handler

	authMiddleware      func(http.Handler) http.Handler
	workspaceMiddleware *workspace.Middleware
	health              func(r *http.Request) map[string]string

	workspaceHandler   *workspace.Handler
	transactionHandler *interfaces.TransactionHandler
	categoryHandler    *interfaces.CategoryHandler
	cronHandler        *interfaces.CronHandler
	budgetHandler      *budget.Handler
	goalHandler        *goal.Handler
	investmentsHandler *investments.Handler
	insightsHandler    *insights.Handler
	educationHandler   *education.Handler
	billingHandler     *billing.Handler
	assistantHandler   *assistant.Handler
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	stats := s.health(r)
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	api.RespondJSON(w, status, stats)
}

// member scopes a handler to {workspaceID} and the caller's membership.
func (s *Server) member(h http.HandlerFunc) http.Handler {
	return s.workspaceMiddleware.RequireMember(h)
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	publicRoutes.Handle("POST /api/cron/materialize", http.HandlerFunc(s.cronHandler.Materialize))
	publicRoutes.Handle("POST /api/billing/webhook", http.HandlerFunc(s.billingHandler.Webhook))

	protectedRoutes := http.NewServeMux()
	const ws = "/api/protected/workspaces/{workspaceID}"

	// WORKSPACES API
	protectedRoutes.HandleFunc("POST /api/protected/workspaces", s.workspaceHandler.CreateWorkspace)
	protectedRoutes.HandleFunc("GET /api/protected/workspaces", s.workspaceHandler.ListWorkspaces)
	protectedRoutes.HandleFunc("GET /api/protected/workspaces/default", s.workspaceHandler.GetDefaultWorkspace)
	protectedRoutes.HandleFunc("GET "+ws, s.workspaceHandler.GetWorkspace)
	protectedRoutes.HandleFunc("PUT "+ws, s.workspaceHandler.RenameWorkspace)
	protectedRoutes.HandleFunc("DELETE "+ws, s.workspaceHandler.DeleteWorkspace)
	protectedRoutes.HandleFunc("GET "+ws+"/members", s.workspaceHandler.ListMembers)
	protectedRoutes.HandleFunc("PUT "+ws+"/members/{userID}", s.workspaceHandler.ChangeMemberRole)
	protectedRoutes.HandleFunc("DELETE "+ws+"/members/{userID}", s.workspaceHandler.RemoveMember)
	protectedRoutes.HandleFunc("POST "+ws+"/leave", s.workspaceHandler.LeaveWorkspace)
	protectedRoutes.HandleFunc("POST "+ws+"/invitations", s.workspaceHandler.InviteMember)
	protectedRoutes.HandleFunc("GET "+ws+"/invitations", s.workspaceHandler.ListInvitations)
	protectedRoutes.HandleFunc("DELETE "+ws+"/invitations/{invitationID}", s.workspaceHandler.RevokeInvitation)
	protectedRoutes.HandleFunc("POST /api/protected/invitations/accept", s.workspaceHandler.AcceptInvitation)

	// TRANSACTIONS API
	protectedRoutes.Handle("POST "+ws+"/transactions", s.member(s.transactionHandler.CreateTransaction))
	protectedRoutes.Handle("POST "+ws+"/transactions/bulk", s.member(s.transactionHandler.CreateTransactionsBulk))
	protectedRoutes.Handle("GET "+ws+"/transactions", s.member(s.transactionHandler.GetTransactions))
	protectedRoutes.Handle("GET "+ws+"/transactions/summary", s.member(s.transactionHandler.GetTransactionSummary))
	protectedRoutes.Handle("GET "+ws+"/transactions/summary/category", s.member(s.transactionHandler.GetTransactionSummaryByCategory))
	protectedRoutes.Handle("GET "+ws+"/transactions/upcoming", s.member(s.transactionHandler.GetUpcoming))
	protectedRoutes.Handle("GET "+ws+"/transactions/projected-balance", s.member(s.transactionHandler.GetProjectedBalance))
	protectedRoutes.Handle("GET "+ws+"/transactions/{transactionID}", s.member(s.transactionHandler.GetTransaction))
	protectedRoutes.Handle("PUT "+ws+"/transactions/{transactionID}", s.member(s.transactionHandler.UpdateTransaction))
	protectedRoutes.Handle("DELETE "+ws+"/transactions/{transactionID}", s.member(s.transactionHandler.DeleteTransaction))
	protectedRoutes.Handle("GET "+ws+"/transactions/{transactionID}/occurrences", s.member(s.transactionHandler.GetOccurrences))

	// CATEGORIES API
	protectedRoutes.HandleFunc("GET /api/protected/categories", s.categoryHandler.GetCategories)
	protectedRoutes.Handle("GET "+ws+"/categories", s.member(s.categoryHandler.GetWorkspaceCategories))

	// BUDGETS API
	protectedRoutes.Handle("POST "+ws+"/budgets", s.member(s.budgetHandler.CreateBudget))
	protectedRoutes.Handle("GET "+ws+"/budgets", s.member(s.budgetHandler.ListBudgets))
	protectedRoutes.Handle("GET "+ws+"/budgets/status", s.member(s.budgetHandler.GetStatus))
	protectedRoutes.Handle("GET "+ws+"/budgets/{budgetID}", s.member(s.budgetHandler.GetBudget))
	protectedRoutes.Handle("PUT "+ws+"/budgets/{budgetID}", s.member(s.budgetHandler.UpdateBudget))
	protectedRoutes.Handle("DELETE "+ws+"/budgets/{budgetID}", s.member(s.budgetHandler.DeleteBudget))

	// GOALS API
	protectedRoutes.Handle("POST "+ws+"/goals", s.member(s.goalHandler.CreateGoal))
	protectedRoutes.Handle("GET "+ws+"/goals", s.member(s.goalHandler.ListGoals))
	protectedRoutes.Handle("GET "+ws+"/goals/{goalID}", s.member(s.goalHandler.GetGoal))
	protectedRoutes.Handle("PUT "+ws+"/goals/{goalID}", s.member(s.goalHandler.UpdateGoal))
	protectedRoutes.Handle("DELETE "+ws+"/goals/{goalID}", s.member(s.goalHandler.DeleteGoal))
	protectedRoutes.Handle("POST "+ws+"/goals/{goalID}/contribute", s.member(s.goalHandler.Contribute))

	// INVESTMENTS API
	protectedRoutes.HandleFunc("GET /api/protected/investment_types", s.investmentsHandler.GetInvestmentTypes)
	protectedRoutes.Handle("POST "+ws+"/investments", s.member(s.investmentsHandler.CreateInvestment))
	protectedRoutes.Handle("GET "+ws+"/investments", s.member(s.investmentsHandler.GetInvestments))
	protectedRoutes.Handle("GET "+ws+"/investments/portfolio", s.member(s.investmentsHandler.GetPortfolio))
	protectedRoutes.Handle("GET "+ws+"/net-worth/projection", s.member(s.investmentsHandler.GetNetWorthProjection))
	protectedRoutes.Handle("GET "+ws+"/investments/{investmentID}",
		s.workspaceMiddleware.RequireMember(s.investmentsHandler.ValidatePathParams(http.HandlerFunc(s.investmentsHandler.GetInvestment), "investmentID")))
	protectedRoutes.Handle("PUT "+ws+"/investments/{investmentID}",
		s.workspaceMiddleware.RequireMember(s.investmentsHandler.ValidatePathParams(http.HandlerFunc(s.investmentsHandler.UpdateInvestment), "investmentID")))
	protectedRoutes.Handle("DELETE "+ws+"/investments/{investmentID}",
		s.workspaceMiddleware.RequireMember(s.investmentsHandler.ValidatePathParams(http.HandlerFunc(s.investmentsHandler.DeleteInvestment), "investmentID")))

	// INSIGHTS API
	protectedRoutes.Handle("GET "+ws+"/dashboard", s.member(s.insightsHandler.GetDashboard))
	protectedRoutes.Handle("GET "+ws+"/tips", s.member(s.insightsHandler.GetTips))
	protectedRoutes.Handle("POST "+ws+"/alerts/generate", s.member(s.insightsHandler.GenerateAlerts))
	protectedRoutes.Handle("GET "+ws+"/alerts", s.member(s.insightsHandler.ListAlerts))
	protectedRoutes.Handle("PUT "+ws+"/alerts/read", s.member(s.insightsHandler.MarkAllAlertsRead))
	protectedRoutes.Handle("PUT "+ws+"/alerts/{alertID}/read", s.member(s.insightsHandler.MarkAlertRead))
	protectedRoutes.Handle("DELETE "+ws+"/alerts/{alertID}", s.member(s.insightsHandler.DeleteAlert))

	// ASSISTANT API
	protectedRoutes.Handle("POST "+ws+"/assistant/chat", s.member(s.assistantHandler.Chat))

	// EDUCATION API
	protectedRoutes.HandleFunc("GET /api/protected/education/modules", s.educationHandler.ListModules)
	protectedRoutes.HandleFunc("GET /api/protected/education/modules/{moduleSlug}", s.educationHandler.GetModule)
	protectedRoutes.HandleFunc("GET /api/protected/education/modules/{moduleSlug}/lessons/{lessonSlug}", s.educationHandler.GetLesson)
	protectedRoutes.HandleFunc("POST /api/protected/education/modules/{moduleSlug}/lessons/{lessonSlug}/complete", s.educationHandler.CompleteLesson)

	// SUBSCRIPTION API
	protectedRoutes.HandleFunc("GET /api/protected/subscription", s.billingHandler.GetSubscription)

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", s.authMiddleware(protectedRoutes))
	mainRouter.Handle("/", http.HandlerFunc(api.NotFound))

	s.router = logging.Middleware(mainRouter)
}
