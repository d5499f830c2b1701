package property

// Field names a business attribute of a property.
type Field string

// Kind describes how a field's value is represented in Attributes.
type Kind int

// Field kinds.
const (
	KindText    Kind = iota // string
	KindNumber              // float64
	KindDate                // string, YYYY-MM-DD
	KindURLList             // []string of http(s) URLs
	KindList                // []string
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindURLList:
		return "url_list"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Business fields.
const (
	FieldArea             Field = "area"
	FieldRooms            Field = "rooms"
	FieldRenovationType   Field = "renovation_type"
	FieldOwner            Field = "owner"
	FieldContractor       Field = "contractor"
	FieldAgent            Field = "agent"
	FieldCity             Field = "city"
	FieldPostalCode       Field = "postal_code"
	FieldStatus           Field = "status"
	FieldNotes            Field = "notes"
	FieldPurchasePrice    Field = "purchase_price"
	FieldRenovationBudget Field = "renovation_budget"
	FieldListingPrice     Field = "listing_price"
	FieldImageURLs        Field = "image_urls"
	FieldDocumentURLs     Field = "document_urls"
	FieldTags             Field = "tags"
	FieldPurchaseDate     Field = "purchase_date"
	FieldSettlementDate   Field = "settlement_date"
	FieldRenovationStart  Field = "renovation_start"
	FieldRenovationEnd    Field = "renovation_end"
	FieldListingDate      Field = "listing_date"
	FieldSaleDate         Field = "sale_date"
)

var fieldKinds = map[Field]Kind{
	FieldArea:             KindNumber,
	FieldRooms:            KindNumber,
	FieldRenovationType:   KindText,
	FieldOwner:            KindText,
	FieldContractor:       KindText,
	FieldAgent:            KindText,
	FieldCity:             KindText,
	FieldPostalCode:       KindText,
	FieldStatus:           KindText,
	FieldNotes:            KindText,
	FieldPurchasePrice:    KindNumber,
	FieldRenovationBudget: KindNumber,
	FieldListingPrice:     KindNumber,
	FieldImageURLs:        KindURLList,
	FieldDocumentURLs:     KindURLList,
	FieldTags:             KindList,
	FieldPurchaseDate:     KindDate,
	FieldSettlementDate:   KindDate,
	FieldRenovationStart:  KindDate,
	FieldRenovationEnd:    KindDate,
	FieldListingDate:      KindDate,
	FieldSaleDate:         KindDate,
}

// Fields returns every known business field in declaration order.
func Fields() []Field {
	return []Field{
		FieldArea, FieldRooms, FieldRenovationType, FieldOwner, FieldContractor,
		FieldAgent, FieldCity, FieldPostalCode, FieldStatus, FieldNotes,
		FieldPurchasePrice, FieldRenovationBudget, FieldListingPrice,
		FieldImageURLs, FieldDocumentURLs, FieldTags,
		FieldPurchaseDate, FieldSettlementDate, FieldRenovationStart,
		FieldRenovationEnd, FieldListingDate, FieldSaleDate,
	}
}

// Kind returns the representation kind of the field.
func (f Field) Kind() Kind {
	return fieldKinds[f]
}

// IsValid reports whether f is a known business field.
func (f Field) IsValid() bool {
	_, ok := fieldKinds[f]
	return ok
}

// String returns the field name.
func (f Field) String() string {
	return string(f)
}
