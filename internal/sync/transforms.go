package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pearcestephens/stocklink-backend/internal/consignment"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
)

// Transforms map the raw remote JSON shapes onto the shadow schema. They
// tolerate missing optional fields and report malformed records as errors so
// the engine can skip and count them instead of aborting the page.

var errMissingID = errors.New("record is missing an id")

type productDTO struct {
	ID          string      `json:"id"`
	SKU         string      `json:"sku"`
	Handle      string      `json:"handle"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	BrandID     *string     `json:"brand_id"`
	SupplierID  *string     `json:"supplier_id"`
	CategoryID  *string     `json:"category_id"`
	VariantName string      `json:"variant_name"`
	Price       json.Number `json:"price"`
	SupplyPrice json.Number `json:"supply_price"`
	Active      *bool       `json:"active"`
	Version     json.Number `json:"version"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	DeletedAt   string      `json:"deleted_at"`
}

func transformProduct(raw json.RawMessage) (models.Product, error) {
	var dto productDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Product{}, fmt.Errorf("decode product: %w", err)
	}
	if dto.ID == "" {
		return models.Product{}, fmt.Errorf("product: %w", errMissingID)
	}
	active := true
	if dto.Active != nil {
		active = *dto.Active
	}
	return models.Product{
		ID:          dto.ID,
		SKU:         dto.SKU,
		Handle:      dto.Handle,
		Name:        dto.Name,
		Description: dto.Description,
		BrandID:     dto.BrandID,
		SupplierID:  dto.SupplierID,
		CategoryID:  dto.CategoryID,
		VariantName: dto.VariantName,
		Price:       parseDecimal(dto.Price),
		Cost:        parseDecimal(dto.SupplyPrice),
		Active:      active,
		Version:     parseVersion(dto.Version),
		CreatedAt:   parseTime(dto.CreatedAt),
		UpdatedAt:   parseTime(dto.UpdatedAt),
		DeletedAt:   parseTime(dto.DeletedAt),
	}, nil
}

type outletDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	TimeZone  string      `json:"time_zone"`
	Version   json.Number `json:"version"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
	DeletedAt string      `json:"deleted_at"`
}

func transformOutlet(raw json.RawMessage) (models.Outlet, error) {
	var dto outletDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Outlet{}, fmt.Errorf("decode outlet: %w", err)
	}
	if dto.ID == "" {
		return models.Outlet{}, fmt.Errorf("outlet: %w", errMissingID)
	}
	return models.Outlet{
		ID:        dto.ID,
		Name:      dto.Name,
		TimeZone:  dto.TimeZone,
		Version:   parseVersion(dto.Version),
		CreatedAt: parseTime(dto.CreatedAt),
		UpdatedAt: parseTime(dto.UpdatedAt),
		DeletedAt: parseTime(dto.DeletedAt),
	}, nil
}

type categoryDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ParentID  *string     `json:"parent_id"`
	Version   json.Number `json:"version"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
	DeletedAt string      `json:"deleted_at"`
}

func transformCategory(raw json.RawMessage) (models.Category, error) {
	var dto categoryDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Category{}, fmt.Errorf("decode category: %w", err)
	}
	if dto.ID == "" {
		return models.Category{}, fmt.Errorf("category: %w", errMissingID)
	}
	return models.Category{
		ID:        dto.ID,
		Name:      dto.Name,
		ParentID:  dto.ParentID,
		Version:   parseVersion(dto.Version),
		CreatedAt: parseTime(dto.CreatedAt),
		UpdatedAt: parseTime(dto.UpdatedAt),
		DeletedAt: parseTime(dto.DeletedAt),
	}, nil
}

type brandDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Version   json.Number `json:"version"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
	DeletedAt string      `json:"deleted_at"`
}

func transformBrand(raw json.RawMessage) (models.Brand, error) {
	var dto brandDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Brand{}, fmt.Errorf("decode brand: %w", err)
	}
	if dto.ID == "" {
		return models.Brand{}, fmt.Errorf("brand: %w", errMissingID)
	}
	return models.Brand{
		ID:        dto.ID,
		Name:      dto.Name,
		Version:   parseVersion(dto.Version),
		CreatedAt: parseTime(dto.CreatedAt),
		UpdatedAt: parseTime(dto.UpdatedAt),
		DeletedAt: parseTime(dto.DeletedAt),
	}, nil
}

type supplierDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Version     json.Number `json:"version"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	DeletedAt   string      `json:"deleted_at"`
}

func transformSupplier(raw json.RawMessage) (models.Supplier, error) {
	var dto supplierDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Supplier{}, fmt.Errorf("decode supplier: %w", err)
	}
	if dto.ID == "" {
		return models.Supplier{}, fmt.Errorf("supplier: %w", errMissingID)
	}
	return models.Supplier{
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		Email:       dto.Email,
		Phone:       dto.Phone,
		Version:     parseVersion(dto.Version),
		CreatedAt:   parseTime(dto.CreatedAt),
		UpdatedAt:   parseTime(dto.UpdatedAt),
		DeletedAt:   parseTime(dto.DeletedAt),
	}, nil
}

type userDTO struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email"`
	AccountType string      `json:"account_type"`
	Version     json.Number `json:"version"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	DeletedAt   string      `json:"deleted_at"`
}

func transformUser(raw json.RawMessage) (models.User, error) {
	var dto userDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.User{}, fmt.Errorf("decode user: %w", err)
	}
	if dto.ID == "" {
		return models.User{}, fmt.Errorf("user: %w", errMissingID)
	}
	return models.User{
		ID:          dto.ID,
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		AccountType: dto.AccountType,
		Version:     parseVersion(dto.Version),
		CreatedAt:   parseTime(dto.CreatedAt),
		UpdatedAt:   parseTime(dto.UpdatedAt),
		DeletedAt:   parseTime(dto.DeletedAt),
	}, nil
}

type customerDTO struct {
	ID        string      `json:"id"`
	Code      string      `json:"customer_code"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Company   string      `json:"company_name"`
	GroupID   *string     `json:"customer_group_id"`
	Version   json.Number `json:"version"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
	DeletedAt string      `json:"deleted_at"`
}

func transformCustomer(raw json.RawMessage) (models.Customer, error) {
	var dto customerDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Customer{}, fmt.Errorf("decode customer: %w", err)
	}
	if dto.ID == "" {
		return models.Customer{}, fmt.Errorf("customer: %w", errMissingID)
	}
	return models.Customer{
		ID:        dto.ID,
		Code:      dto.Code,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Company:   dto.Company,
		GroupID:   dto.GroupID,
		Version:   parseVersion(dto.Version),
		CreatedAt: parseTime(dto.CreatedAt),
		UpdatedAt: parseTime(dto.UpdatedAt),
		DeletedAt: parseTime(dto.DeletedAt),
	}, nil
}

type inventoryDTO struct {
	ProductID     string      `json:"product_id"`
	OutletID      string      `json:"outlet_id"`
	CurrentAmount json.Number `json:"current_amount"`
	ReorderPoint  json.Number `json:"reorder_point"`
	ReorderAmount json.Number `json:"reorder_amount"`
	Version       json.Number `json:"version"`
	UpdatedAt     string      `json:"updated_at"`
}

func transformInventory(raw json.RawMessage) (models.InventoryLevel, error) {
	var dto inventoryDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.InventoryLevel{}, fmt.Errorf("decode inventory level: %w", err)
	}
	if dto.ProductID == "" || dto.OutletID == "" {
		return models.InventoryLevel{}, errors.New("inventory level is missing product or outlet id")
	}
	return models.InventoryLevel{
		ProductID:    dto.ProductID,
		OutletID:     dto.OutletID,
		Quantity:     parseInt(dto.CurrentAmount),
		ReorderPoint: parseInt(dto.ReorderPoint),
		ReorderQty:   parseInt(dto.ReorderAmount),
		Version:      parseVersion(dto.Version),
		UpdatedAt:    parseTime(dto.UpdatedAt),
	}, nil
}

type saleDTO struct {
	ID         string          `json:"id"`
	OutletID   *string         `json:"outlet_id"`
	RegisterID *string         `json:"register_id"`
	CustomerID *string         `json:"customer_id"`
	UserID     *string         `json:"user_id"`
	Status     string          `json:"status"`
	Note       string          `json:"note"`
	TotalPrice json.Number     `json:"total_price"`
	TotalTax   json.Number     `json:"total_tax"`
	LineItems  json.RawMessage `json:"line_items"`
	SaleDate   string          `json:"sale_date"`
	Version    json.Number     `json:"version"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
	DeletedAt  string          `json:"deleted_at"`
}

func transformSale(raw json.RawMessage) (models.Sale, error) {
	var dto saleDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Sale{}, fmt.Errorf("decode sale: %w", err)
	}
	if dto.ID == "" {
		return models.Sale{}, fmt.Errorf("sale: %w", errMissingID)
	}
	return models.Sale{
		ID:         dto.ID,
		OutletID:   dto.OutletID,
		RegisterID: dto.RegisterID,
		CustomerID: dto.CustomerID,
		UserID:     dto.UserID,
		Status:     dto.Status,
		Note:       dto.Note,
		Total:      parseDecimal(dto.TotalPrice),
		TotalTax:   parseDecimal(dto.TotalTax),
		LineItems:  dto.LineItems,
		SaleDate:   parseTime(dto.SaleDate),
		Version:    parseVersion(dto.Version),
		CreatedAt:  parseTime(dto.CreatedAt),
		UpdatedAt:  parseTime(dto.UpdatedAt),
		DeletedAt:  parseTime(dto.DeletedAt),
	}, nil
}

type consignmentDTO struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Status     string      `json:"status"`
	OutletID   *string     `json:"outlet_id"`
	SourceID   *string     `json:"source_outlet_id"`
	SupplierID *string     `json:"supplier_id"`
	Reference  string      `json:"reference"`
	Note       string      `json:"note"`
	TotalCount json.Number `json:"total_count"`
	ReceivedAt string      `json:"received_at"`
	SentAt     string      `json:"sent_at"`
	DueAt      string      `json:"due_at"`
	Version    json.Number `json:"version"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
	DeletedAt  string      `json:"deleted_at"`
}

func transformConsignment(raw json.RawMessage) (models.Consignment, error) {
	var dto consignmentDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Consignment{}, fmt.Errorf("decode consignment: %w", err)
	}
	if dto.ID == "" {
		return models.Consignment{}, fmt.Errorf("consignment: %w", errMissingID)
	}
	state, ok := consignment.Normalize(dto.Status)
	if !ok {
		return models.Consignment{}, fmt.Errorf("consignment %s: unknown state %q", dto.ID, dto.Status)
	}
	return models.Consignment{
		ID:         dto.ID,
		Name:       dto.Name,
		Type:       dto.Type,
		State:      state,
		OutletID:   dto.OutletID,
		SourceID:   dto.SourceID,
		SupplierID: dto.SupplierID,
		Reference:  dto.Reference,
		Notes:      dto.Note,
		TotalCount: parseInt(dto.TotalCount),
		ReceivedAt: parseTime(dto.ReceivedAt),
		SentAt:     parseTime(dto.SentAt),
		DueAt:      parseTime(dto.DueAt),
		Version:    parseVersion(dto.Version),
		CreatedAt:  parseTime(dto.CreatedAt),
		UpdatedAt:  parseTime(dto.UpdatedAt),
		DeletedAt:  parseTime(dto.DeletedAt),
	}, nil
}

func parseVersion(value json.Number) int64 {
	if value == "" {
		return 0
	}
	parsed, err := value.Int64()
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value json.Number) int {
	if value == "" {
		return 0
	}
	parsed, err := value.Float64()
	if err != nil {
		return 0
	}
	return int(parsed)
}

func parseDecimal(value json.Number) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// parseTime accepts the handful of timestamp layouts the remote API emits.
func parseTime(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return &parsed
		}
	}
	return nil
}
