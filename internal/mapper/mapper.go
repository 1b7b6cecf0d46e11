// Package mapper converts persistence models into API DTOs.
package mapper

import (
	"time"

	"github.com/salesdesk/crm-api/internal/domain"
)

func formatDateTime(t time.Time) string {
	return t.Format(domain.DateTimeLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: formatDateTime(user.CreatedAt),
		UpdatedAt: formatDateTime(user.UpdatedAt),
	}
}

// ToLeadSourceDTO converts LeadSource to LeadSourceDTO
func ToLeadSourceDTO(source *domain.LeadSource) domain.LeadSourceDTO {
	return domain.LeadSourceDTO{
		ID:     source.ID,
		Name:   source.Name,
		Status: source.Status,
	}
}

// ToLeadDTO converts Lead to LeadDTO. sourceName and assigneeName are
// looked up by the service; empty strings are omitted from the response.
func ToLeadDTO(lead *domain.Lead, sourceName, assigneeName string) domain.LeadDTO {
	return domain.LeadDTO{
		ID:           lead.ID,
		Name:         lead.Name,
		Phone:        lead.Phone,
		Email:        lead.Email,
		SourceID:     lead.SourceID,
		SourceName:   sourceName,
		ProductID:    lead.ProductID,
		Message:      lead.Message,
		Status:       lead.Status,
		AssignedTo:   lead.AssignedTo,
		AssigneeName: assigneeName,
		CreatedAt:    formatDateTime(lead.CreatedAt),
		UpdatedAt:    formatDateTime(lead.UpdatedAt),
	}
}

// ToLeadLostDTO converts LeadLost to LeadLostDTO
func ToLeadLostDTO(archived *domain.LeadLost) domain.LeadLostDTO {
	return domain.LeadLostDTO{
		ID:             archived.ID,
		OriginalLeadID: archived.OriginalLeadID,
		Name:           archived.Name,
		Phone:          archived.Phone,
		Email:          archived.Email,
		SourceID:       archived.SourceID,
		AssignedTo:     archived.AssignedTo,
		LostReason:     archived.LostReason,
		LostAt:         formatDateTime(archived.LostAt),
	}
}

// ToCustomerDTO converts Customer to CustomerDTO
func ToCustomerDTO(customer *domain.Customer, assigneeName string) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:                customer.ID,
		Name:              customer.Name,
		Phone:             deref(customer.Phone),
		Email:             deref(customer.Email),
		SourceID:          customer.SourceID,
		CreatedFromLeadID: customer.CreatedFromLeadID,
		AssignedTo:        customer.AssignedTo,
		AssigneeName:      assigneeName,
		CreatedAt:         formatDateTime(customer.CreatedAt),
		UpdatedAt:         formatDateTime(customer.UpdatedAt),
	}
}

// ToDealDTO converts Deal to DealDTO
func ToDealDTO(deal *domain.Deal, customerName, ownerName string) domain.DealDTO {
	return domain.DealDTO{
		ID:                deal.ID,
		Title:             deal.Title,
		CustomerID:        deal.CustomerID,
		CustomerName:      customerName,
		Value:             deal.Value,
		Stage:             deal.Stage,
		OwnerID:           deal.OwnerID,
		OwnerName:         ownerName,
		ExpectedCloseDate: formatDate(deal.ExpectedCloseDate),
		CreatedAt:         formatDateTime(deal.CreatedAt),
		UpdatedAt:         formatDateTime(deal.UpdatedAt),
	}
}

// ToDealWonDTO converts DealWon to DealWonDTO
func ToDealWonDTO(deal *domain.DealWon) domain.DealWonDTO {
	return domain.DealWonDTO{
		ID:                deal.ID,
		OriginalDealID:    deal.OriginalDealID,
		Title:             deal.Title,
		CustomerID:        deal.CustomerID,
		Value:             deal.Value,
		OwnerID:           deal.OwnerID,
		ExpectedCloseDate: formatDate(deal.ExpectedCloseDate),
		DealCreatedAt:     formatDateTime(deal.DealCreatedAt),
		WonAt:             formatDateTime(deal.WonAt),
	}
}

// ToDealLostDTO converts DealLost to DealLostDTO
func ToDealLostDTO(deal *domain.DealLost) domain.DealLostDTO {
	return domain.DealLostDTO{
		ID:                deal.ID,
		OriginalDealID:    deal.OriginalDealID,
		Title:             deal.Title,
		CustomerID:        deal.CustomerID,
		Value:             deal.Value,
		OwnerID:           deal.OwnerID,
		ExpectedCloseDate: formatDate(deal.ExpectedCloseDate),
		LostReason:        deal.LostReason,
		DealCreatedAt:     formatDateTime(deal.DealCreatedAt),
		LostAt:            formatDateTime(deal.LostAt),
	}
}

// ToFollowupDTO converts Followup to FollowupDTO
func ToFollowupDTO(followup *domain.Followup, customerName, employeeName string) domain.FollowupDTO {
	return domain.FollowupDTO{
		ID:               followup.ID,
		CustomerID:       followup.CustomerID,
		CustomerName:     customerName,
		EmployeeID:       followup.EmployeeID,
		EmployeeName:     employeeName,
		Type:             followup.Type,
		Notes:            followup.Notes,
		NextFollowupDate: formatDate(followup.NextFollowupDate),
		Status:           followup.Status,
		CreatedAt:        formatDateTime(followup.CreatedAt),
		UpdatedAt:        formatDateTime(followup.UpdatedAt),
	}
}

// ToNoteDTO converts Note to NoteDTO
func ToNoteDTO(note *domain.Note) domain.NoteDTO {
	return domain.NoteDTO{
		ID:         note.ID,
		EntityType: note.EntityType,
		EntityID:   note.EntityID,
		Note:       note.Note,
		CreatedBy:  note.CreatedBy,
		CreatedAt:  formatDateTime(note.CreatedAt),
	}
}

// ToQuotationDTO converts Quotation with its items to QuotationDTO
func ToQuotationDTO(quotation *domain.Quotation, customerName string) domain.QuotationDTO {
	items := make([]domain.QuotationItemDTO, len(quotation.Items))
	for i, item := range quotation.Items {
		items[i] = domain.QuotationItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			UnitPrice:       item.UnitPrice,
			Qty:             item.Qty,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       item.LineTotal,
		}
	}

	validUntil := ""
	if quotation.ValidUntil != nil {
		validUntil = quotation.ValidUntil.Format(domain.DateLayout)
	}

	return domain.QuotationDTO{
		ID:             quotation.ID,
		QuotationNo:    quotation.QuotationNo,
		CustomerID:     quotation.CustomerID,
		CustomerName:   customerName,
		QuotationDate:  quotation.QuotationDate.Format(domain.DateLayout),
		ValidUntil:     validUntil,
		DiscountType:   quotation.DiscountType,
		DiscountValue:  quotation.DiscountValue,
		TaxPercent:     quotation.TaxPercent,
		Subtotal:       quotation.Subtotal,
		DiscountAmount: quotation.DiscountAmount,
		TaxAmount:      quotation.TaxAmount,
		GrandTotal:     quotation.GrandTotal,
		Status:         quotation.Status,
		CreatedBy:      quotation.CreatedBy,
		Items:          items,
		CreatedAt:      formatDateTime(quotation.CreatedAt),
	}
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(product *domain.Product) domain.ProductDTO {
	images := make([]domain.ProductImageDTO, len(product.Images))
	for i, img := range product.Images {
		images[i] = domain.ProductImageDTO{
			ID:       img.ID,
			URL:      img.URL,
			Position: img.Position,
		}
	}

	return domain.ProductDTO{
		ID:         product.ID,
		Name:       product.Name,
		Price:      product.Price,
		CategoryID: product.CategoryID,
		Type:       product.Type,
		IsPublic:   product.IsPublic,
		MainImage:  product.MainImage,
		Gallery:    product.Gallery,
		Images:     images,
		CreatedAt:  formatDateTime(product.CreatedAt),
	}
}
