package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Deps carries everything the API surface needs.
type Deps struct {
	Storage       *storage.Repository
	Tokens        *auth.TokenManager
	Authenticator auth.Authenticator
	Ledger        *services.LoanLedger
	Payer         *services.ExpensePayer
	Scans         *services.ScanService
	Logger        *log.Logger
}

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	logger     *log.Logger

	storage *storage.Repository
	tokens  *auth.TokenManager
	authn   auth.Authenticator
	ledger  *services.LoanLedger
	payer   *services.ExpensePayer
	scans   *services.ScanService
}

func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		logger:  deps.Logger.WithComponent(log.ComponentHTTP),
		storage: deps.Storage,
		tokens:  deps.Tokens,
		authn:   deps.Authenticator,
		ledger:  deps.Ledger,
		payer:   deps.Payer,
		scans:   deps.Scans,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(log.RequestLogger(s.logger))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Public routes first; the second /api subrouter carries the auth
	// middleware and picks up everything the public one does not match.
	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	public.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth())

	api.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.handleUpdateMe).Methods(http.MethodPut)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.handleGetCategory).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/transactions/stats", s.handleTransactionStats).Methods(http.MethodGet)
	api.HandleFunc("/transactions/expense-breakdown", s.handleExpenseBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/investments/stats", s.handleInvestmentStats).Methods(http.MethodGet)
	api.HandleFunc("/investments", s.handleListInvestments).Methods(http.MethodGet)
	api.HandleFunc("/investments", s.handleCreateInvestment).Methods(http.MethodPost)
	api.HandleFunc("/investments/{id}", s.handleGetInvestment).Methods(http.MethodGet)
	api.HandleFunc("/investments/{id}", s.handleUpdateInvestment).Methods(http.MethodPut)
	api.HandleFunc("/investments/{id}", s.handleDeleteInvestment).Methods(http.MethodDelete)

	api.HandleFunc("/loans", s.handleListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", s.handleCreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}", s.handleGetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", s.handleUpdateLoan).Methods(http.MethodPut)
	api.HandleFunc("/loans/{id}", s.handleDeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id}/schedule", s.handleLoanSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/payments", s.handleLoanPayment).Methods(http.MethodPost)

	api.HandleFunc("/monthly-expenses/stats", s.handleMonthlyExpenseStats).Methods(http.MethodGet)
	api.HandleFunc("/monthly-expenses", s.handleListMonthlyExpenses).Methods(http.MethodGet)
	api.HandleFunc("/monthly-expenses", s.handleCreateMonthlyExpense).Methods(http.MethodPost)
	api.HandleFunc("/monthly-expenses/{id}", s.handleGetMonthlyExpense).Methods(http.MethodGet)
	api.HandleFunc("/monthly-expenses/{id}", s.handleUpdateMonthlyExpense).Methods(http.MethodPut)
	api.HandleFunc("/monthly-expenses/{id}", s.handleDeleteMonthlyExpense).Methods(http.MethodDelete)
	api.HandleFunc("/monthly-expenses/{id}/pay", s.handlePayMonthlyExpense).Methods(http.MethodPost)
	api.HandleFunc("/monthly-expenses/{id}/paid", s.handleMarkPaid).Methods(http.MethodPatch)
	api.HandleFunc("/monthly-expenses/{id}/unpaid", s.handleMarkUnpaid).Methods(http.MethodPatch)

	api.HandleFunc("/transfers", s.handleListTransfers).Methods(http.MethodGet)
	api.HandleFunc("/transfers", s.handleCreateTransfer).Methods(http.MethodPost)
	api.HandleFunc("/transfers/{id}", s.handleGetTransfer).Methods(http.MethodGet)
	api.HandleFunc("/transfers/{id}", s.handleUpdateTransfer).Methods(http.MethodPut)
	api.HandleFunc("/transfers/{id}", s.handleDeleteTransfer).Methods(http.MethodDelete)

	api.HandleFunc("/ai/scan-bill", s.handleScanBill).Methods(http.MethodPost)
	api.HandleFunc("/ai/auto-categorize", s.handleAutoCategorize).Methods(http.MethodPost)
	api.HandleFunc("/ai/scans/{id}", s.handleGetScan).Methods(http.MethodGet)

	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, "ok", map[string]string{"status": "healthy"})
}
