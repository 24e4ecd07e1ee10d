package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/themyzteziz/bankapp/internal/domain"
	"github.com/themyzteziz/bankapp/internal/ledger"
	"github.com/themyzteziz/bankapp/pkg/crypto"
	"github.com/themyzteziz/bankapp/pkg/validator"
)

type APIHandler struct {
	ledger          *ledger.Ledger
	signer          *crypto.Signer
	validator       *validator.TransactionValidator
	logger          *slog.Logger
	defaultCurrency string
	requestTimeout  time.Duration
}

func NewAPIHandler(l *ledger.Ledger, signer *crypto.Signer, defaultCurrency string, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrency
	}

	return &APIHandler{
		ledger:          l,
		signer:          signer,
		validator:       validator.NewTransactionValidator(),
		logger:          logger,
		defaultCurrency: defaultCurrency,
		requestTimeout:  30 * time.Second,
	}
}

type CreateAccountRequest struct {
	Name           string             `json:"name"`
	Currency       string             `json:"currency,omitempty"`
	InitialBalance decimal.Decimal    `json:"initialBalance"`
	AccountType    domain.AccountType `json:"accountType"`
}

type CreateTransactionRequest struct {
	Type        domain.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Description string                 `json:"description,omitempty"`
	ToAccountID string                 `json:"toAccountId,omitempty"`
	Signature   string                 `json:"signature,omitempty"`
}

type TransactionResponse struct {
	AccountID   string              `json:"accountId"`
	Transaction *domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
	Message     string              `json:"message,omitempty"`
}

type ApplyInterestRequest struct {
	AnnualRatePercent float64 `json:"annualRatePercent"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if req.AccountType == "" {
		req.AccountType = domain.AccountTypeDeposit
	}
	if req.AccountType != domain.AccountTypeSavings && req.AccountType != domain.AccountTypeDeposit {
		h.sendError(w, fmt.Sprintf("Unknown account type: %s", req.AccountType), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	if req.Currency == "" {
		req.Currency = h.defaultCurrency
	}

	account, err := h.ledger.CreateAccount(ctx, req.Name, req.Currency, req.InitialBalance, req.AccountType)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	h.sendJSON(w, account, http.StatusCreated)
}

func (h *APIHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	accounts, err := h.ledger.GetAllAccounts(ctx)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	h.sendJSON(w, accounts, http.StatusOK)
}

func (h *APIHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	account, err := h.ledger.GetAccount(ctx, r.PathValue("id"))
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.ledger.DeleteAccount(ctx, r.PathValue("id")); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	accountID := r.PathValue("id")

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.Currency == "" {
		req.Currency = h.defaultCurrency
	}

	if req.Signature != "" {
		if valid, err := h.signer.VerifyTransaction(accountID, req.Amount, req.Currency, string(req.Type), req.Signature); !valid || err != nil {
			h.sendError(w, "Invalid signature", http.StatusUnauthorized, "INVALID_SIGNATURE")
			return
		}
	}

	tx := domain.NewTransaction(req.Type, req.Amount, req.Description, req.Currency)
	if err := h.validator.ValidateTransaction(tx); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	if req.Type == domain.TypeTransfer {
		h.handleTransfer(ctx, w, accountID, req, tx)
		return
	}

	account, err := h.ledger.AddTransaction(ctx, accountID, tx)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	h.sendJSON(w, TransactionResponse{
		AccountID:   accountID,
		Transaction: tx,
		Balance:     account.Balance,
		Message:     "Transaction applied",
	}, http.StatusCreated)

	h.logger.Info("Transaction applied",
		slog.String("transaction_id", tx.ID),
		slog.String("account_id", accountID),
		slog.String("type", string(tx.Type)))
}

// handleTransfer moves funds between two accounts as two independent legs:
// a direct withdrawal plus a Transfer history entry on the source, and a
// Deposit entry on the destination. There is no atomic two-account
// operation; a failure between the legs leaves the completed legs in place.
func (h *APIHandler) handleTransfer(ctx context.Context, w http.ResponseWriter, fromID string, req CreateTransactionRequest, tx *domain.Transaction) {
	if req.ToAccountID == "" {
		h.sendError(w, "toAccountId is required for transfers", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	if req.ToAccountID == fromID {
		h.sendError(w, "cannot transfer to same account", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	from, err := h.ledger.GetAccount(ctx, fromID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	to, err := h.ledger.GetAccount(ctx, req.ToAccountID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	if from.Currency != to.Currency {
		h.sendError(w, fmt.Sprintf("currency mismatch: %s != %s", from.Currency, to.Currency), http.StatusBadRequest, "CURRENCY_MISMATCH")
		return
	}

	if _, err := h.ledger.Withdraw(ctx, fromID, req.Amount); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	account, err := h.ledger.AddTransaction(ctx, fromID, tx)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	deposit := domain.NewTransaction(domain.TypeDeposit, req.Amount,
		fmt.Sprintf("Transfer from %s", from.Name), req.Currency)
	if _, err := h.ledger.AddTransaction(ctx, req.ToAccountID, deposit); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	h.sendJSON(w, TransactionResponse{
		AccountID:   fromID,
		Transaction: tx,
		Balance:     account.Balance,
		Message:     "Transfer applied",
	}, http.StatusCreated)

	h.logger.Info("Transfer applied",
		slog.String("transaction_id", tx.ID),
		slog.String("from_account", fromID),
		slog.String("to_account", req.ToAccountID))
}

func (h *APIHandler) ApplyInterestHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req ApplyInterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.AnnualRatePercent <= 0 {
		h.sendError(w, "annualRatePercent must be positive", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	if err := h.ledger.ApplyMonthlyInterest(ctx, req.AnnualRatePercent); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	h.sendJSON(w, map[string]string{"status": "interest applied"}, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) sendLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ledger.ErrDuplicateName):
		h.sendError(w, err.Error(), http.StatusConflict, "DUPLICATE_NAME")
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.sendError(w, err.Error(), http.StatusConflict, "INSUFFICIENT_FUNDS")
	case errors.Is(err, domain.ErrAmountNotPositive),
		errors.Is(err, domain.ErrNilTransaction),
		errors.Is(err, ledger.ErrInvalidName):
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
	default:
		h.sendError(w, "Internal error", http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccountHandler)
	mux.HandleFunc("GET /api/v1/accounts", h.ListAccountsHandler)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.GetAccountHandler)
	mux.HandleFunc("DELETE /api/v1/accounts/{id}", h.DeleteAccountHandler)
	mux.HandleFunc("POST /api/v1/accounts/{id}/transactions", h.CreateTransactionHandler)
	mux.HandleFunc("POST /api/v1/interest", h.ApplyInterestHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
