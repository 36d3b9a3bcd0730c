package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CustomerAddressPayload struct {
	AddressType string `json:"address_type" binding:"required"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country" binding:"required,len=2"`
	IsDefault   bool   `json:"is_default"`
}

type CreateCustomerRequest struct {
	Name          string                   `json:"name" binding:"required"`
	Type          string                   `json:"type" binding:"required"`
	TaxCode       string                   `json:"tax_code"`
	CompanyName   string                   `json:"company_name"`
	ContactPerson string                   `json:"contact_person"`
	Phone         string                   `json:"phone"`
	Email         string                   `json:"email"`
	Addresses     []CustomerAddressPayload `json:"addresses"`
}

type UpdateCustomerRequest struct {
	Name          *string                   `json:"name"`
	Type          *string                   `json:"type"`
	TaxCode       *string                   `json:"tax_code"`
	CompanyName   *string                   `json:"company_name"`
	ContactPerson *string                   `json:"contact_person"`
	Phone         *string                   `json:"phone"`
	Email         *string                   `json:"email"`
	IsActive      *bool                     `json:"is_active"`
	Addresses     *[]CustomerAddressPayload `json:"addresses"` // pointer so nil = not sent, [] = clear all
}

// --- Interface ---

type CustomerService interface {
	Create(ctx context.Context, req CreateCustomerRequest, userID string) (*model.Customer, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest, userID string) (*model.Customer, error)
	Delete(ctx context.Context, id string, userID string) error
	Get(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(customerRepo repository.CustomerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) CustomerService {
	return &customerService{customerRepo: customerRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Validation helpers ---

var validCustomerTypes = map[string]bool{
	model.CustomerTypeRetail:    true,
	model.CustomerTypeWholesale: true,
	model.CustomerTypeBusiness:  true,
}

var validCustomerAddressTypes = map[string]bool{
	model.AddressTypeBilling:  true,
	model.AddressTypeShipping: true,
}

func validateCustomerAddresses(addresses []CustomerAddressPayload) error {
	for i, addr := range addresses {
		if !validCustomerAddressTypes[addr.AddressType] {
			return fmt.Errorf("addresses[%d]: address_type must be one of: BILLING, SHIPPING", i)
		}
		if addr.Country == "" {
			return fmt.Errorf("addresses[%d]: country is required", i)
		}
	}
	return nil
}

func toCustomerAddressModels(customerID uuid.UUID, payloads []CustomerAddressPayload) []model.CustomerAddress {
	addresses := make([]model.CustomerAddress, 0, len(payloads))
	for _, p := range payloads {
		addresses = append(addresses, model.CustomerAddress{
			CustomerID:  customerID,
			AddressType: p.AddressType,
			Street:      p.Street,
			City:        p.City,
			State:       p.State,
			PostalCode:  p.PostalCode,
			Country:     p.Country,
			IsDefault:   p.IsDefault,
		})
	}
	return addresses
}

// --- CRUD ---

func (s *customerService) Create(ctx context.Context, req CreateCustomerRequest, userID string) (*model.Customer, error) {
	if !validCustomerTypes[req.Type] {
		return nil, fmt.Errorf("type must be one of: RETAIL, WHOLESALE, BUSINESS")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, fmt.Errorf("invalid email format")
		}
	}
	if err := validateCustomerAddresses(req.Addresses); err != nil {
		return nil, err
	}

	customer := &model.Customer{
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
		Addresses:     toCustomerAddressModels(uuid.Nil, req.Addresses), // GORM fills CustomerID on cascade create
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Create(txCtx, customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateCustomer, customer.ID.String(), customer.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return customer, nil
}

func (s *customerService) Update(ctx context.Context, id string, req UpdateCustomerRequest, userID string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id")
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer not found")
		}
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		customer.Name = *req.Name
	}
	if req.Type != nil {
		if !validCustomerTypes[*req.Type] {
			return nil, fmt.Errorf("type must be one of: RETAIL, WHOLESALE, BUSINESS")
		}
		customer.Type = *req.Type
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return nil, fmt.Errorf("invalid email format")
		}
		customer.Email = *req.Email
	} else if req.Email != nil {
		customer.Email = ""
	}
	if req.TaxCode != nil {
		customer.TaxCode = *req.TaxCode
	}
	if req.CompanyName != nil {
		customer.CompanyName = *req.CompanyName
	}
	if req.ContactPerson != nil {
		customer.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	if req.Addresses != nil {
		if err := validateCustomerAddresses(*req.Addresses); err != nil {
			return nil, err
		}
	}

	// Field update + address replacement run in one transaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Update(txCtx, customer); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		if req.Addresses != nil {
			if err := s.customerRepo.DeleteAddressesByCustomerID(txCtx, customer.ID); err != nil {
				return fmt.Errorf("failed to clear customer addresses: %w", err)
			}
			if err := s.customerRepo.CreateAddresses(txCtx, toCustomerAddressModels(customer.ID, *req.Addresses)); err != nil {
				return fmt.Errorf("failed to create customer addresses: %w", err)
			}
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateCustomer, customer.ID.String(), customer.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.customerRepo.FindByID(ctx, customerID)
}

func (s *customerService) Delete(ctx context.Context, id string, userID string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid customer id")
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("customer not found")
		}
		return fmt.Errorf("failed to fetch customer: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Delete(txCtx, customerID); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteCustomer, id, customer.Name, map[string]string{"deleted_id": id})
	})
}

func (s *customerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id")
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer not found")
		}
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error) {
	if customerType != "" && !validCustomerTypes[customerType] {
		return nil, 0, fmt.Errorf("type must be one of: RETAIL, WHOLESALE, BUSINESS")
	}
	return s.customerRepo.List(ctx, customerType, search, page, limit)
}

func (s *customerService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if uid, err := uuid.Parse(userID); err == nil {
		entry.UserID = &uid
	}
	return s.auditRepo.Log(ctx, &entry)
}
