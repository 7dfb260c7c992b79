package inventory

// =============================================================================
// SCHEMA DESCRIPTORS - Data-model documentation source
// =============================================================================
// Consumed by cmd/erdiagram to emit a Mermaid ER diagram. Kept next to
// the types so a model change and its documentation change land in the
// same package.

// FieldDef describes one entity attribute for documentation purposes.
type FieldDef struct {
	Name string
	Type string
	Key  string // "PK", "FK", "UK" or ""
}

// EntityDef describes one persisted entity.
type EntityDef struct {
	Name   string
	Fields []FieldDef
}

// RelationDef describes one relationship edge.
type RelationDef struct {
	From        string
	To          string
	Cardinality string // Mermaid cardinality, e.g. "||--o{"
	Label       string
}

// Schema returns the documented data model.
func Schema() ([]EntityDef, []RelationDef) {
	entities := []EntityDef{
		{Name: "GENRE", Fields: []FieldDef{
			{Name: "id", Type: "uuid", Key: "PK"},
			{Name: "name", Type: "string", Key: "UK"},
			{Name: "created_at", Type: "datetime"},
		}},
		{Name: "BOOK", Fields: []FieldDef{
			{Name: "id", Type: "uuid", Key: "PK"},
			{Name: "isbn", Type: "string", Key: "UK"},
			{Name: "title", Type: "string"},
			{Name: "author", Type: "string"},
			{Name: "publisher", Type: "string"},
			{Name: "genre_id", Type: "uuid", Key: "FK"},
			{Name: "price", Type: "decimal"},
			{Name: "created_at", Type: "datetime"},
			{Name: "updated_at", Type: "datetime"},
		}},
		{Name: "INVENTORY", Fields: []FieldDef{
			{Name: "id", Type: "uuid", Key: "PK"},
			{Name: "book_id", Type: "uuid", Key: "FK"},
			{Name: "quantity", Type: "int"},
			{Name: "updated_at", Type: "datetime"},
		}},
		{Name: "INVENTORY_TRANSACTION", Fields: []FieldDef{
			{Name: "id", Type: "uuid", Key: "PK"},
			{Name: "inventory_id", Type: "uuid", Key: "FK"},
			{Name: "transaction_type", Type: "string"},
			{Name: "quantity", Type: "int"},
			{Name: "reason", Type: "text"},
			{Name: "created_at", Type: "datetime"},
		}},
		{Name: "SALE", Fields: []FieldDef{
			{Name: "id", Type: "uuid", Key: "PK"},
			{Name: "book_id", Type: "uuid", Key: "FK"},
			{Name: "quantity", Type: "int"},
			{Name: "unit_price", Type: "decimal"},
			{Name: "sold_at", Type: "datetime"},
			{Name: "created_at", Type: "datetime"},
		}},
	}

	relations := []RelationDef{
		{From: "GENRE", To: "BOOK", Cardinality: "||--o{", Label: "categorizes"},
		{From: "BOOK", To: "INVENTORY", Cardinality: "||--||", Label: "stocked as"},
		{From: "INVENTORY", To: "INVENTORY_TRANSACTION", Cardinality: "||--o{", Label: "changed by"},
		{From: "BOOK", To: "SALE", Cardinality: "||--o{", Label: "sold as"},
	}

	return entities, relations
}
