package config

import (
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/property"
)

// Default returns the built-in configuration. Partition IDs are placeholders
// and are normally replaced by a mapping file per environment.
func Default() Config {
	return Config{
		Source: Source{
			Table:          "Properties",
			ListSeparators: ",;\n",
		},
		Partitions: []Partition{
			{Phase: property.PhaseAwaitingSettlement, ID: "awaiting_settlement", Priority: 0},
			{Phase: property.PhaseRenovation, ID: "renovation", Priority: 1},
			{Phase: property.PhaseMarketing, ID: "marketing", Priority: 2},
			{Phase: property.PhaseSold, ID: "sold", Priority: 3},
		},
		Keys: Keys{
			Business:    []string{"Property ID", "PropertyID", "Object ID", "ID"},
			Address:     []string{"Address", "Street Address", "Adresse", "Name"},
			Identifiers: []string{"Address", "Street Address", "Adresse", "Name", "Cadastral Number"},
		},
		Synonyms: map[property.Field][]string{
			property.FieldArea:             {"Area", "Area (m2)", "Living Area", "Size"},
			property.FieldRooms:            {"Rooms", "Room Count", "Number of Rooms"},
			property.FieldRenovationType:   {"Renovation Type", "Renovation", "Scope"},
			property.FieldOwner:            {"Owner Name", "Responsible", "Project Manager", "Owner"},
			property.FieldContractor:       {"Contractor", "Contractor Name"},
			property.FieldAgent:            {"Agent", "Broker", "Estate Agent"},
			property.FieldCity:             {"City", "Town"},
			property.FieldPostalCode:       {"Postal Code", "Zip", "ZIP Code"},
			property.FieldStatus:           {"Status", "Stage", "Pipeline Status"},
			property.FieldNotes:            {"Notes", "Comments"},
			property.FieldPurchasePrice:    {"Purchase Price", "Price Paid"},
			property.FieldRenovationBudget: {"Renovation Budget", "Budget"},
			property.FieldListingPrice:     {"Listing Price", "Asking Price"},
			property.FieldImageURLs:        {"Images", "Photos", "Image URLs", "Pictures"},
			property.FieldDocumentURLs:     {"Documents", "Attachments", "Files"},
			property.FieldTags:             {"Tags", "Labels"},
			property.FieldPurchaseDate:     {"Purchase Date", "Bought On"},
			property.FieldSettlementDate:   {"Settlement Date", "Closing Date"},
			property.FieldRenovationStart:  {"Renovation Start", "Renovation Start Date", "Start Date"},
			property.FieldRenovationEnd:    {"Renovation End", "Renovation End Date", "Completion Date"},
			property.FieldListingDate:      {"Listing Date", "Listed On"},
			property.FieldSaleDate:         {"Sale Date", "Sold On"},
		},
		Links: []Link{
			{
				Field:  "Owner Link",
				Table:  "People",
				Attach: map[string]string{"Name": "Owner Name"},
			},
			{
				Field:  "Gallery",
				Table:  "Media",
				Attach: map[string]string{"Images": "Images"},
			},
		},
		StatusRules: []StatusRule{
			{Phase: property.PhaseSold, Keywords: []string{"sold", "closed", "handed over"}},
			{Phase: property.PhaseMarketing, Keywords: []string{"listed", "marketing", "for sale", "viewing"}},
			{Phase: property.PhaseRenovation, Keywords: []string{"renovation", "in progress", "construction", "advanced"}},
			{Phase: property.PhaseAwaitingSettlement, Keywords: []string{"settlement", "purchased", "pending"}},
		},
		Tracked: []property.Field{
			property.FieldArea,
			property.FieldRooms,
			property.FieldRenovationType,
			property.FieldOwner,
			property.FieldContractor,
			property.FieldAgent,
			property.FieldCity,
			property.FieldPostalCode,
			property.FieldStatus,
			property.FieldPurchasePrice,
			property.FieldRenovationBudget,
			property.FieldListingPrice,
			property.FieldImageURLs,
			property.FieldPurchaseDate,
			property.FieldSettlementDate,
			property.FieldRenovationStart,
			property.FieldRenovationEnd,
			property.FieldListingDate,
			property.FieldSaleDate,
		},
		Propagated: map[string]string{
			"phase": "Phase",
		},
		Override: &OverrideRule{
			FromPhase: property.PhaseAwaitingSettlement,
			DateField: property.FieldRenovationStart,
			ToPhase:   property.PhaseRenovation,
		},
		DetailLimit: constants.MaxResultDetails,
	}
}
