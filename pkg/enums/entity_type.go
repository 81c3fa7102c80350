package enums

// EntityType identifies one remote entity family tracked by the sync engine.
type EntityType string

const (
	EntityOutlets      EntityType = "outlets"
	EntityCategories   EntityType = "categories"
	EntityBrands       EntityType = "brands"
	EntitySuppliers    EntityType = "suppliers"
	EntityUsers        EntityType = "users"
	EntityProducts     EntityType = "products"
	EntityCustomers    EntityType = "customers"
	EntityInventory    EntityType = "inventory"
	EntitySales        EntityType = "sales"
	EntityConsignments EntityType = "consignments"
)

// SyncOrder lists entities in dependency order: later entities reference
// earlier ones, so a full sync must walk this list front to back.
func SyncOrder() []EntityType {
	return []EntityType{
		EntityOutlets,
		EntityCategories,
		EntityBrands,
		EntitySuppliers,
		EntityUsers,
		EntityProducts,
		EntityCustomers,
		EntityInventory,
		EntitySales,
		EntityConsignments,
	}
}

func (e EntityType) Valid() bool {
	switch e {
	case EntityOutlets, EntityCategories, EntityBrands, EntitySuppliers,
		EntityUsers, EntityProducts, EntityCustomers, EntityInventory,
		EntitySales, EntityConsignments:
		return true
	}
	return false
}
