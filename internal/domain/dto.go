package domain

// Datetime and date layouts used in API responses.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// UserDTO is the API representation of a user. The password hash never
// leaves the service layer.
type UserDTO struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LeadSourceDTO is the API representation of a lead source.
type LeadSourceDTO struct {
	ID     uint             `json:"id"`
	Name   string           `json:"name"`
	Status LeadSourceStatus `json:"status"`
}

// LeadDTO is the API representation of a lead.
type LeadDTO struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Email        string     `json:"email,omitempty"`
	SourceID     *uint      `json:"source_id,omitempty"`
	SourceName   string     `json:"source_name,omitempty"`
	ProductID    *uint      `json:"product_id,omitempty"`
	Message      string     `json:"message,omitempty"`
	Status       LeadStatus `json:"status"`
	AssignedTo   *uint      `json:"assigned_to,omitempty"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

// LeadRegistrationResultDTO is returned by the public registration
// endpoint. Duplicate submissions within the dedup window return the
// existing lead id with Duplicate set.
type LeadRegistrationResultDTO struct {
	LeadID    uint `json:"lead_id"`
	Duplicate bool `json:"duplicate"`
}

// CustomerAction describes what the lead "contacted" transition did to the
// customer table.
type CustomerAction string

const (
	CustomerActionAlreadyExists   CustomerAction = "already_exists_for_lead"
	CustomerActionUpdatedExisting CustomerAction = "updated_existing_customer"
	CustomerActionCreatedNew      CustomerAction = "created_new_customer"
)

// LeadUpdateResultDTO is returned by lead status updates. CustomerAction
// is set only when the transition to "contacted" ran customer sync.
type LeadUpdateResultDTO struct {
	Lead           LeadDTO        `json:"lead"`
	CustomerAction CustomerAction `json:"customer_action,omitempty"`
	CustomerID     *uint          `json:"customer_id,omitempty"`
}

// LeadLostDTO is the API representation of an archived lost lead.
type LeadLostDTO struct {
	ID             uint   `json:"id"`
	OriginalLeadID uint   `json:"original_lead_id"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	SourceID       *uint  `json:"source_id,omitempty"`
	AssignedTo     *uint  `json:"assigned_to,omitempty"`
	LostReason     string `json:"lost_reason,omitempty"`
	LostAt         string `json:"lost_at"`
}

// CustomerDTO is the API representation of a customer.
type CustomerDTO struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	SourceID          *uint  `json:"source_id,omitempty"`
	CreatedFromLeadID *uint  `json:"created_from_lead_id,omitempty"`
	AssignedTo        *uint  `json:"assigned_to,omitempty"`
	AssigneeName      string `json:"assignee_name,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// DealDTO is the API representation of an active deal.
type DealDTO struct {
	ID                uint      `json:"id"`
	Title             string    `json:"title"`
	CustomerID        uint      `json:"customer_id"`
	CustomerName      string    `json:"customer_name,omitempty"`
	Value             float64   `json:"value"`
	Stage             DealStage `json:"stage"`
	OwnerID           uint      `json:"owner_id"`
	OwnerName         string    `json:"owner_name,omitempty"`
	ExpectedCloseDate string    `json:"expected_close_date,omitempty"`
	CreatedAt         string    `json:"created_at"`
	UpdatedAt         string    `json:"updated_at"`
}

// DealWonDTO is the API representation of a won-deal archive row.
type DealWonDTO struct {
	ID                uint    `json:"id"`
	OriginalDealID    uint    `json:"original_deal_id"`
	Title             string  `json:"title"`
	CustomerID        uint    `json:"customer_id"`
	Value             float64 `json:"value"`
	OwnerID           uint    `json:"owner_id"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	DealCreatedAt     string  `json:"deal_created_at"`
	WonAt             string  `json:"won_at"`
}

// DealLostDTO is the API representation of a lost-deal archive row.
type DealLostDTO struct {
	ID                uint    `json:"id"`
	OriginalDealID    uint    `json:"original_deal_id"`
	Title             string  `json:"title"`
	CustomerID        uint    `json:"customer_id"`
	Value             float64 `json:"value"`
	OwnerID           uint    `json:"owner_id"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	LostReason        string  `json:"lost_reason,omitempty"`
	DealCreatedAt     string  `json:"deal_created_at"`
	LostAt            string  `json:"lost_at"`
}

// FollowupDTO is the API representation of a followup.
type FollowupDTO struct {
	ID               uint           `json:"id"`
	CustomerID       uint           `json:"customer_id"`
	CustomerName     string         `json:"customer_name,omitempty"`
	EmployeeID       uint           `json:"employee_id"`
	EmployeeName     string         `json:"employee_name,omitempty"`
	Type             string         `json:"type,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	NextFollowupDate string         `json:"next_followup_date,omitempty"`
	Status           FollowupStatus `json:"status"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// NoteDTO is the API representation of a note.
type NoteDTO struct {
	ID         uint           `json:"id"`
	EntityType NoteEntityType `json:"entity_type"`
	EntityID   uint           `json:"entity_id"`
	Note       string         `json:"note"`
	CreatedBy  uint           `json:"created_by"`
	CreatedAt  string         `json:"created_at"`
}

// QuotationItemDTO is an ordered line on a quotation response.
type QuotationItemDTO struct {
	ID              uint    `json:"id"`
	ProductID       uint    `json:"product_id"`
	ProductName     string  `json:"product_name"`
	UnitPrice       float64 `json:"unit_price"`
	Qty             int     `json:"qty"`
	DiscountPercent float64 `json:"discount_percent"`
	LineTotal       float64 `json:"line_total"`
}

// QuotationDTO is the API representation of a quotation with its lines.
type QuotationDTO struct {
	ID             uint               `json:"id"`
	QuotationNo    string             `json:"quotation_no"`
	CustomerID     uint               `json:"customer_id"`
	CustomerName   string             `json:"customer_name,omitempty"`
	QuotationDate  string             `json:"quotation_date"`
	ValidUntil     string             `json:"valid_until,omitempty"`
	DiscountType   DiscountType       `json:"discount_type"`
	DiscountValue  float64            `json:"discount_value"`
	TaxPercent     float64            `json:"tax_percent"`
	Subtotal       float64            `json:"subtotal"`
	DiscountAmount float64            `json:"discount_amount"`
	TaxAmount      float64            `json:"tax_amount"`
	GrandTotal     float64            `json:"grand_total"`
	Status         QuotationStatus    `json:"status"`
	CreatedBy      uint               `json:"created_by"`
	Items          []QuotationItemDTO `json:"items"`
	CreatedAt      string             `json:"created_at"`
}

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	CategoryID *uint             `json:"category_id,omitempty"`
	Type       string            `json:"type,omitempty"`
	IsPublic   bool              `json:"is_public"`
	MainImage  string            `json:"main_image,omitempty"`
	Gallery    []string          `json:"gallery,omitempty"`
	Images     []ProductImageDTO `json:"images,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// ProductImageDTO is an ordered gallery entry on a product response.
type ProductImageDTO struct {
	ID       uint   `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Lead request DTOs

// RegisterLeadRequest is the public registration payload. SourceName is
// find-or-created as a lead source.
type RegisterLeadRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"required,max=30"`
	Email      string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	SourceName string `json:"source_name,omitempty" validate:"max=100"`
	ProductID  *uint  `json:"product_id,omitempty"`
	Message    string `json:"message,omitempty" validate:"max=2000"`
}

type CreateLeadRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone,omitempty" validate:"max=30"`
	Email      string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	SourceID   *uint  `json:"source_id,omitempty"`
	ProductID  *uint  `json:"product_id,omitempty"`
	Message    string `json:"message,omitempty" validate:"max=2000"`
	AssignedTo *uint  `json:"assigned_to,omitempty"`
}

// UpdateLeadRequest uses pointers for partial-update semantics: absent
// fields preserve current values. Status changes drive the lifecycle side
// effects; LostReason is only consulted when Status becomes lost.
type UpdateLeadRequest struct {
	Name       *string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone      *string     `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email      *string     `json:"email,omitempty" validate:"omitempty,max=200"`
	SourceID   *uint       `json:"source_id,omitempty"`
	ProductID  *uint       `json:"product_id,omitempty"`
	Message    *string     `json:"message,omitempty" validate:"omitempty,max=2000"`
	Status     *LeadStatus `json:"status,omitempty"`
	LostReason string      `json:"lost_reason,omitempty" validate:"max=500"`
}

type AssignLeadRequest struct {
	AssignedTo uint `json:"assigned_to" validate:"required"`
}

// Customer request DTOs

type CreateCustomerRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone,omitempty" validate:"max=30"`
	Email      string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	SourceID   *uint  `json:"source_id,omitempty"`
	AssignedTo *uint  `json:"assigned_to,omitempty"`
}

// ImportCustomersRequest carries already-parsed CSV rows. File parsing
// happens upstream; each row goes through the normal creation path.
type ImportCustomersRequest struct {
	Rows []CreateCustomerRequest `json:"rows" validate:"required,min=1,dive"`
}

// ImportCustomersResultDTO reports per-row outcomes of a bulk import.
type ImportCustomersResultDTO struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type UpdateCustomerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email    *string `json:"email,omitempty" validate:"omitempty,max=200"`
	SourceID *uint   `json:"source_id,omitempty"`
}

type AssignCustomerRequest struct {
	AssignedTo uint `json:"assigned_to" validate:"required"`
}

// Deal request DTOs

type CreateDealRequest struct {
	Title             string    `json:"title" validate:"required,max=200"`
	CustomerID        uint      `json:"customer_id" validate:"required"`
	Value             float64   `json:"value,omitempty" validate:"gte=0"`
	Stage             DealStage `json:"stage,omitempty"`
	OwnerID           *uint     `json:"owner_id,omitempty"`
	ExpectedCloseDate *string   `json:"expected_close_date,omitempty"`
}

// UpdateDealRequest uses pointers for partial-update semantics: absent
// fields preserve current values, and an ExpectedCloseDate sent as an
// empty string clears the date. LostReason is only consulted when Stage
// becomes lost.
type UpdateDealRequest struct {
	Title             *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Value             *float64   `json:"value,omitempty" validate:"omitempty,gte=0"`
	Stage             *DealStage `json:"stage,omitempty"`
	ExpectedCloseDate *string    `json:"expected_close_date,omitempty"`
	LostReason        string     `json:"lost_reason,omitempty" validate:"max=500"`
}

// Followup request DTOs

type CreateFollowupRequest struct {
	CustomerID       uint           `json:"customer_id" validate:"required"`
	EmployeeID       *uint          `json:"employee_id,omitempty"`
	Type             string         `json:"type,omitempty" validate:"max=50"`
	Notes            string         `json:"notes,omitempty" validate:"max=2000"`
	NextFollowupDate string         `json:"next_followup_date,omitempty"`
	Status           FollowupStatus `json:"status,omitempty"`
}

type UpdateFollowupRequest struct {
	Type             *string         `json:"type,omitempty" validate:"omitempty,max=50"`
	Notes            *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
	NextFollowupDate *string         `json:"next_followup_date,omitempty"`
	Status           *FollowupStatus `json:"status,omitempty"`
}

// Note request DTOs

type CreateNoteRequest struct {
	EntityType NoteEntityType `json:"entity_type" validate:"required"`
	EntityID   uint           `json:"entity_id" validate:"required"`
	Note       string         `json:"note" validate:"required,max=5000"`
}

// Quotation request DTOs

type QuotationItemRequest struct {
	ProductID       uint    `json:"product_id" validate:"required"`
	Qty             int     `json:"qty" validate:"required,min=1"`
	DiscountPercent float64 `json:"discount_percent,omitempty" validate:"min=0,max=100"`
}

type CreateQuotationRequest struct {
	CustomerID    uint                   `json:"customer_id" validate:"required"`
	QuotationDate string                 `json:"quotation_date,omitempty"`
	ValidUntil    string                 `json:"valid_until,omitempty"`
	DiscountType  DiscountType           `json:"discount_type,omitempty"`
	DiscountValue float64                `json:"discount_value,omitempty" validate:"gte=0"`
	TaxPercent    float64                `json:"tax_percent,omitempty" validate:"min=0,max=100"`
	Items         []QuotationItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateQuotationStatusRequest struct {
	Status QuotationStatus `json:"status" validate:"required"`
}

// Product request DTOs

type ProductImageRequest struct {
	URL      string `json:"url" validate:"required,max=500"`
	Position int    `json:"position,omitempty" validate:"min=0"`
}

type CreateProductRequest struct {
	Name       string                `json:"name" validate:"required,max=200"`
	Price      float64               `json:"price" validate:"required,gte=0"`
	CategoryID *uint                 `json:"category_id,omitempty"`
	Type       string                `json:"type,omitempty" validate:"max=50"`
	IsPublic   bool                  `json:"is_public,omitempty"`
	MainImage  string                `json:"main_image,omitempty" validate:"max=500"`
	Gallery    []string              `json:"gallery,omitempty"`
	Images     []ProductImageRequest `json:"images,omitempty" validate:"dive"`
}

type UpdateProductRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Price      *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	CategoryID *uint    `json:"category_id,omitempty"`
	Type       *string  `json:"type,omitempty" validate:"omitempty,max=50"`
	IsPublic   *bool    `json:"is_public,omitempty"`
	MainImage  *string  `json:"main_image,omitempty" validate:"omitempty,max=500"`
	Gallery    []string `json:"gallery,omitempty"`
}

// User request DTOs

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Phone    string `json:"phone,omitempty" validate:"max=30"`
	Role     Role   `json:"role" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserRequest updates a user profile. Role changes are admin-only
// and ignored for other callers at the service layer.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Role     *Role   `json:"role,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// Lead source request DTOs

type CreateLeadSourceRequest struct {
	Name   string           `json:"name" validate:"required,max=100"`
	Status LeadSourceStatus `json:"status,omitempty"`
}

type UpdateLeadSourceRequest struct {
	Name   *string           `json:"name,omitempty" validate:"omitempty,max=100"`
	Status *LeadSourceStatus `json:"status,omitempty"`
}

// ListResponse is the paginated list envelope shared by all list
// endpoints.
type ListResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
