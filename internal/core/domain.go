package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income     TransactionType = "income"
	Expense    TransactionType = "expense"
	Transfer   TransactionType = "transfer"
	Investing  TransactionType = "investment"

	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanDefaulted LoanStatus = "defaulted"

	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"

	ScanPending   ScanStatus = "pending"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

type (
	TransactionType string
	LoanStatus      string
	TransferStatus  string
	ScanStatus      string

	User struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Password  string    `json:"-"`
		Currency  string    `json:"currency"`
		Timezone  string    `json:"timezone"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Category struct {
		ID        int64           `json:"id"`
		UserID    int64           `json:"userId,omitempty"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		Icon      string          `json:"icon"`
		Color     string          `json:"color"`
		IsDefault bool            `json:"isDefault"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  int64           `json:"categoryId"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
		Location    string          `json:"location,omitempty"`
		Tags        []string        `json:"tags,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Investment struct {
		ID             int64     `json:"id"`
		UserID         int64     `json:"userId"`
		Name           string    `json:"name"`
		Type           string    `json:"type"`
		AmountInvested Money     `json:"amountInvested"`
		CurrentValue   Money     `json:"currentValue"`
		PurchaseDate   time.Time `json:"purchaseDate"`
		Quantity       float64   `json:"quantity,omitempty"`
		Symbol         string    `json:"symbol,omitempty"`
		Platform       string    `json:"platform,omitempty"`
	}

	Loan struct {
		ID              int64      `json:"id"`
		UserID          int64      `json:"userId"`
		Name            string     `json:"name"`
		PrincipalAmount Money      `json:"principalAmount"`
		CurrentBalance  Money      `json:"currentBalance"`
		InterestRate    float64    `json:"interestRate"` // annual, percent
		StartDate       time.Time  `json:"startDate"`
		EndDate         time.Time  `json:"endDate"`
		Status          LoanStatus `json:"status"`
		NextDueDate     *time.Time `json:"nextDueDate,omitempty"`
		PaymentsMade    int        `json:"paymentsMade"`
	}

	MonthlyExpense struct {
		ID           int64      `json:"id"`
		UserID       int64      `json:"userId"`
		Name         string     `json:"name"`
		Category     string     `json:"category"`
		Amount       Money      `json:"amount"`
		DueDay       int        `json:"dueDate"` // day of month, 1-31
		Description  string     `json:"description,omitempty"`
		IsActive     bool       `json:"isActive"`
		LastPaidDate *time.Time `json:"lastPaidDate,omitempty"`
		NextDueDate  time.Time  `json:"nextDueDate"`
		AutoDeduct   bool       `json:"autoDeduct"`
		Tags         []string   `json:"tags,omitempty"`
	}

	TransferRecord struct {
		ID                 int64          `json:"id"`
		UserID             int64          `json:"userId"`
		RecipientName      string         `json:"recipientName"`
		Amount             Money          `json:"amount"`
		Purpose            string         `json:"purpose"`
		DestinationCountry string         `json:"destinationCountry"`
		TransferMethod     string         `json:"transferMethod"`
		Fees               Money          `json:"fees"`
		ExchangeRate       float64        `json:"exchangeRate,omitempty"`
		Status             TransferStatus `json:"status"`
		TransactionID      *int64         `json:"transactionId,omitempty"`
		CreatedAt          time.Time      `json:"createdAt"`
	}

	// Scan is a bill-scan job and its extracted result.
	Scan struct {
		ID          int64      `json:"id"`
		UserID      int64      `json:"userId"`
		Status      ScanStatus `json:"status"`
		ImageURL    string     `json:"-"`
		ImageBase64 string     `json:"-"`
		Result      *ScanResult `json:"result,omitempty"`
		Error       string     `json:"error,omitempty"`
		CreatedAt   time.Time  `json:"createdAt"`
	}

	// ScanResult holds the structured fields extracted from a document.
	ScanResult struct {
		Amount          *Money `json:"amount,omitempty"`
		Currency        string `json:"currency,omitempty"`
		Date            string `json:"date,omitempty"`
		Merchant        string `json:"merchant,omitempty"`
		Description     string `json:"description,omitempty"`
		CategoryName    string `json:"categoryName,omitempty"`
		TransactionType string `json:"transactionType,omitempty"`
		Raw             string `json:"raw,omitempty"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrLoanNotActive      = errors.New("loan is not active")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidDueDay      = errors.New("due day must be between 1 and 31")
	ErrInvalidType        = errors.New("invalid type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidDates       = errors.New("end date must be after start date")
	ErrBalanceExceedsPrincipal = errors.New("balance cannot exceed principal")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCategoryMismatch   = errors.New("transaction type does not match category type")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer, Investing:
		return true
	}
	return false
}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanCompleted, LoanDefaulted:
		return true
	}
	return false
}

func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferCompleted, TransferFailed:
		return true
	}
	return false
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 50 {
		return errors.New("category name too long (max 50 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.CategoryID == 0 {
		return errors.New("category is required")
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	for _, tag := range t.Tags {
		if len(tag) > 30 {
			return errors.New("tag too long (max 30 characters)")
		}
	}
	return nil
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if err := l.PrincipalAmount.Validate(); err != nil {
		return err
	}
	if err := l.CurrentBalance.Validate(); err != nil {
		return err
	}
	if l.PrincipalAmount.LessThan(l.CurrentBalance) {
		return ErrBalanceExceedsPrincipal
	}
	if l.InterestRate < 0 {
		return errors.New("interest rate must not be negative")
	}
	if !l.EndDate.After(l.StartDate) {
		return ErrInvalidDates
	}
	if !l.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (e MonthlyExpense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.DueDay < 1 || e.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (tr TransferRecord) Validate() error {
	if strings.TrimSpace(tr.RecipientName) == "" {
		return ErrEmptyName
	}
	if len(tr.RecipientName) > 100 {
		return errors.New("recipient name too long (max 100 characters)")
	}
	if err := tr.Amount.Validate(); err != nil {
		return err
	}
	if err := tr.Fees.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tr.Purpose) == "" {
		return errors.New("purpose is required")
	}
	if len(tr.DestinationCountry) != 2 {
		return errors.New("destination country must be a 2-letter code")
	}
	if !tr.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > 100 {
		return errors.New("investment name too long (max 100 characters)")
	}
	switch i.Type {
	case "stocks", "mutual_funds", "crypto", "real_estate", "other":
	default:
		return ErrInvalidType
	}
	if err := i.AmountInvested.Validate(); err != nil {
		return err
	}
	if i.PurchaseDate.IsZero() {
		return errors.New("purchase date is required")
	}
	return nil
}
