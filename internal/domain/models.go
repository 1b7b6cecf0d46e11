package domain

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Role identifies the caller's position in the role hierarchy.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
)

// IsValid checks if the role is a known value. Unknown roles must fail
// closed in every policy check.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales:
		return true
	}
	return false
}

// LeadStatus represents a lead's lifecycle position.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusAssigned  LeadStatus = "assigned"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
)

// IsValid checks if the lead status is a valid value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusAssigned, LeadStatusContacted, LeadStatusQualified, LeadStatusLost:
		return true
	}
	return false
}

// validLeadStatusTransitions defines the allowed lead lifecycle moves.
// Transitions not listed here are rejected rather than silently ignored.
var validLeadStatusTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:       {LeadStatusAssigned, LeadStatusContacted, LeadStatusLost},
	LeadStatusAssigned:  {LeadStatusContacted, LeadStatusLost},
	LeadStatusContacted: {LeadStatusQualified, LeadStatusLost},
	LeadStatusQualified: {},
	LeadStatusLost:      {},
}

// CanTransitionTo checks if a status transition is allowed.
// A transition to the current status is treated as a no-op and allowed.
func (s LeadStatus) CanTransitionTo(target LeadStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range validLeadStatusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// DealStage represents a deal's pipeline position.
type DealStage string

const (
	DealStageProspect    DealStage = "prospect"
	DealStageNegotiation DealStage = "negotiation"
	DealStageWon         DealStage = "won"
	DealStageLost        DealStage = "lost"
)

// IsValid checks if the deal stage is a valid value
func (s DealStage) IsValid() bool {
	switch s {
	case DealStageProspect, DealStageNegotiation, DealStageWon, DealStageLost:
		return true
	}
	return false
}

// IsOpen reports whether the stage keeps the deal in the active table.
func (s DealStage) IsOpen() bool {
	return s == DealStageProspect || s == DealStageNegotiation
}

// validDealStageTransitions defines the allowed pipeline moves.
// prospect and negotiation may move back and forth; won and lost are
// terminal and archive the deal.
var validDealStageTransitions = map[DealStage][]DealStage{
	DealStageProspect:    {DealStageNegotiation, DealStageWon, DealStageLost},
	DealStageNegotiation: {DealStageProspect, DealStageWon, DealStageLost},
	DealStageWon:         {},
	DealStageLost:        {},
}

// CanTransitionTo checks if a stage transition is allowed.
func (s DealStage) CanTransitionTo(target DealStage) bool {
	if s == target {
		return true
	}
	for _, allowed := range validDealStageTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// FollowupStatus represents a followup's lifecycle position.
type FollowupStatus string

const (
	FollowupStatusPending   FollowupStatus = "pending"
	FollowupStatusDone      FollowupStatus = "done"
	FollowupStatusCancelled FollowupStatus = "cancelled"
)

// IsValid checks if the followup status is a valid value
func (s FollowupStatus) IsValid() bool {
	switch s {
	case FollowupStatusPending, FollowupStatusDone, FollowupStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if a status change is allowed. Done and
// cancelled are terminal.
func (s FollowupStatus) CanTransitionTo(target FollowupStatus) bool {
	if s == target {
		return true
	}
	return s == FollowupStatusPending
}

// NoteEntityType identifies which record a note is attached to.
type NoteEntityType string

const (
	NoteEntityCustomer NoteEntityType = "customer"
	NoteEntityDeal     NoteEntityType = "deal"
	NoteEntityLead     NoteEntityType = "lead"
)

// IsValid checks if the entity type is a valid value
func (t NoteEntityType) IsValid() bool {
	switch t {
	case NoteEntityCustomer, NoteEntityDeal, NoteEntityLead:
		return true
	}
	return false
}

// QuotationStatus represents a quotation's lifecycle position.
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "draft"
	QuotationStatusSent     QuotationStatus = "sent"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
)

// IsValid checks if the quotation status is a valid value
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted, QuotationStatusRejected:
		return true
	}
	return false
}

var validQuotationStatusTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusDraft:    {QuotationStatusSent, QuotationStatusRejected},
	QuotationStatusSent:     {QuotationStatusAccepted, QuotationStatusRejected},
	QuotationStatusAccepted: {},
	QuotationStatusRejected: {},
}

// CanTransitionTo checks if a status change is allowed.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range validQuotationStatusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// DiscountType identifies how a quotation-level discount is applied.
type DiscountType string

const (
	DiscountNone    DiscountType = "none"
	DiscountPercent DiscountType = "percent"
	DiscountFlat    DiscountType = "flat"
)

// IsValid checks if the discount type is a valid value
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountNone, DiscountPercent, DiscountFlat:
		return true
	}
	return false
}

// LeadSourceStatus represents whether a lead source accepts new leads.
type LeadSourceStatus string

const (
	LeadSourceActive   LeadSourceStatus = "active"
	LeadSourceInactive LeadSourceStatus = "inactive"
)

// IsValid checks if the lead source status is a valid value
func (s LeadSourceStatus) IsValid() bool {
	return s == LeadSourceActive || s == LeadSourceInactive
}

// NormalizePhone strips whitespace and every character except digits and a
// leading '+'. Normalization runs before any phone comparison or storage so
// that "+47 987 65 432" and "+4798765432" match.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// User represents a system user. Tokens are issued by an external
// credential service; this API only stores the profile and role.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string    `json:"phone"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'sales'" json:"role"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// LeadSource is a channel a lead or customer came from. Sources are
// find-or-created by name during public lead registration.
type LeadSource struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Name      string           `gorm:"uniqueIndex;not null" json:"name"`
	Status    LeadSourceStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName specifies the table name for LeadSource
func (LeadSource) TableName() string {
	return "lead_sources"
}

// Product is a catalogue item that leads and quotation lines reference.
type Product struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Price      float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID *uint          `json:"category_id"`
	Type       string         `json:"type"`
	IsPublic   bool           `gorm:"not null;default:false" json:"is_public"`
	MainImage  string         `json:"main_image"`
	Gallery    pq.StringArray `gorm:"type:text[]" json:"gallery"`
	Images     []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// ProductImage is an ordered gallery entry owned by a product.
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null" json:"url"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ProductImage
func (ProductImage) TableName() string {
	return "product_images"
}

// Lead is an inbound prospect prior to becoming a customer.
//
// AssignedTo, when set, must reference a user with role sales. The lead row
// is never deleted; reaching status "lost" archives a copy into leads_lost
// while the source row stays in place.
type Lead struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	Phone      string     `gorm:"index" json:"phone"`
	Email      string     `json:"email"`
	SourceID   *uint      `json:"source_id"`
	ProductID  *uint      `json:"product_id"`
	Message    string     `json:"message"`
	Status     LeadStatus `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	AssignedTo *uint      `gorm:"index" json:"assigned_to"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// LeadLost is the archival mirror of a lead whose status became "lost".
// Rows are keyed by OriginalLeadID and upserted, so repeating the lost
// transition overwrites the archived copy instead of duplicating it.
// The source lead row is kept, unlike deal archival which moves the row.
type LeadLost struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OriginalLeadID uint      `gorm:"uniqueIndex;not null" json:"original_lead_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	SourceID       *uint     `json:"source_id"`
	ProductID      *uint     `json:"product_id"`
	Message        string    `json:"message"`
	AssignedTo     *uint     `json:"assigned_to"`
	LostReason     string    `json:"lost_reason"`
	LostAt         time.Time `json:"lost_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for LeadLost
func (LeadLost) TableName() string {
	return "leads_lost"
}

// Customer is a qualified contact eligible for deals.
//
// Phone and Email are nullable so the uniqueness constraints only bite on
// non-empty values. CreatedFromLeadID links back to the lead whose
// "contacted" transition produced or claimed this customer.
type Customer struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"not null" json:"name"`
	Phone             *string   `gorm:"uniqueIndex" json:"phone"`
	Email             *string   `gorm:"uniqueIndex" json:"email"`
	SourceID          *uint     `json:"source_id"`
	CreatedFromLeadID *uint     `gorm:"uniqueIndex" json:"created_from_lead_id"`
	AssignedTo        *uint     `gorm:"index" json:"assigned_to"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Deal is a sales opportunity tied to a customer. Only open stages
// (prospect, negotiation) live in this table; won and lost deals are moved
// into their archive tables and the active row is deleted.
type Deal struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Title             string     `gorm:"not null" json:"title"`
	CustomerID        uint       `gorm:"not null;index" json:"customer_id"`
	Value             float64    `gorm:"type:decimal(12,2);not null;default:0" json:"value"`
	Stage             DealStage  `gorm:"type:varchar(20);not null;default:'prospect'" json:"stage"`
	OwnerID           uint       `gorm:"not null;index" json:"owner_id"`
	ExpectedCloseDate *time.Time `gorm:"type:date" json:"expected_close_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Deal
func (Deal) TableName() string {
	return "deals"
}

// DealWon is the append-only archive of deals that closed won.
type DealWon struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OriginalDealID    uint       `gorm:"uniqueIndex;not null" json:"original_deal_id"`
	Title             string     `json:"title"`
	CustomerID        uint       `gorm:"index" json:"customer_id"`
	Value             float64    `gorm:"type:decimal(12,2)" json:"value"`
	OwnerID           uint       `gorm:"index" json:"owner_id"`
	ExpectedCloseDate *time.Time `gorm:"type:date" json:"expected_close_date"`
	DealCreatedAt     time.Time  `json:"deal_created_at"`
	WonAt             time.Time  `json:"won_at"`
}

// TableName specifies the table name for DealWon
func (DealWon) TableName() string {
	return "deals_won"
}

// DealLost is the append-only archive of deals that closed lost.
type DealLost struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OriginalDealID    uint       `gorm:"uniqueIndex;not null" json:"original_deal_id"`
	Title             string     `json:"title"`
	CustomerID        uint       `gorm:"index" json:"customer_id"`
	Value             float64    `gorm:"type:decimal(12,2)" json:"value"`
	OwnerID           uint       `gorm:"index" json:"owner_id"`
	ExpectedCloseDate *time.Time `gorm:"type:date" json:"expected_close_date"`
	LostReason        string     `json:"lost_reason"`
	DealCreatedAt     time.Time  `json:"deal_created_at"`
	LostAt            time.Time  `json:"lost_at"`
}

// TableName specifies the table name for DealLost
func (DealLost) TableName() string {
	return "deals_lost"
}

// Followup is a scheduled contact activity against a customer.
// EmployeeID must equal the customer's AssignedTo when the customer is
// assigned.
type Followup struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CustomerID       uint           `gorm:"not null;index" json:"customer_id"`
	EmployeeID       uint           `gorm:"not null;index" json:"employee_id"`
	Type             string         `json:"type"`
	Notes            string         `json:"notes"`
	NextFollowupDate *time.Time     `gorm:"type:date" json:"next_followup_date"`
	Status           FollowupStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Followup
func (Followup) TableName() string {
	return "followups"
}

// Note is a free-text annotation attached to a customer, deal or lead.
type Note struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	EntityType NoteEntityType `gorm:"type:varchar(20);not null;index:idx_notes_entity" json:"entity_type"`
	EntityID   uint           `gorm:"not null;index:idx_notes_entity" json:"entity_id"`
	Note       string         `gorm:"not null" json:"note"`
	CreatedBy  uint           `gorm:"not null;index" json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Note
func (Note) TableName() string {
	return "notes"
}

// Quotation is a priced offer document for a customer. The number is
// generated from a per-year sequence at creation time, QT-YYYY-NNNN.
type Quotation struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	QuotationNo    string          `gorm:"uniqueIndex;not null" json:"quotation_no"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	QuotationDate  time.Time       `gorm:"type:date;not null" json:"quotation_date"`
	ValidUntil     *time.Time      `gorm:"type:date" json:"valid_until"`
	DiscountType   DiscountType    `gorm:"type:varchar(20);not null;default:'none'" json:"discount_type"`
	DiscountValue  float64         `gorm:"type:decimal(12,2);not null;default:0" json:"discount_value"`
	TaxPercent     float64         `gorm:"type:decimal(5,2);not null;default:0" json:"tax_percent"`
	Subtotal       float64         `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	DiscountAmount float64         `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TaxAmount      float64         `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	GrandTotal     float64         `gorm:"type:decimal(12,2);not null;default:0" json:"grand_total"`
	Status         QuotationStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedBy      uint            `gorm:"not null;index" json:"created_by"`
	Items          []QuotationItem `gorm:"foreignKey:QuotationID" json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Quotation
func (Quotation) TableName() string {
	return "quotations"
}

// QuotationItem is an ordered line on a quotation. ProductName and
// UnitPrice are snapshots taken at creation so later product edits do not
// rewrite issued quotations.
type QuotationItem struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	QuotationID     uint    `gorm:"not null;index" json:"quotation_id"`
	ProductID       uint    `gorm:"not null" json:"product_id"`
	ProductName     string  `gorm:"not null" json:"product_name"`
	UnitPrice       float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Qty             int     `gorm:"not null" json:"qty"`
	DiscountPercent float64 `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	LineTotal       float64 `gorm:"type:decimal(12,2);not null" json:"line_total"`
	Position        int     `gorm:"not null;default:0" json:"position"`
}

// TableName specifies the table name for QuotationItem
func (QuotationItem) TableName() string {
	return "quotation_items"
}

// NumberSequence tracks the last used quotation sequence per year.
// Rows are incremented under a row lock so concurrent quotations never
// share a number.
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Year         int       `gorm:"uniqueIndex;not null" json:"year"`
	LastSequence int       `gorm:"not null;default:0" json:"last_sequence"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for NumberSequence
func (NumberSequence) TableName() string {
	return "number_sequences"
}
