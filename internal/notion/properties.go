package notion

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/models"
)

// Properties every target database must define, with their types
const (
	PropertyTitle    = "Title"
	PropertyDate     = "Date"
	PropertyArchived = "Archived"
)

var requiredSchema = []struct {
	name string
	kind string
}{
	{PropertyTitle, "title"},
	{PropertyDate, "date"},
	{PropertyArchived, "checkbox"},
}

// ValidateSchema checks that db defines Title, Date and Archived with the
// expected property types
func ValidateSchema(db *notionapi.Database) error {
	if db == nil {
		return models.Errorf(models.KindConfiguration, "validate schema", "target database not found")
	}

	var problems []string
	for _, required := range requiredSchema {
		config, ok := db.Properties[required.name]
		if !ok || config == nil {
			problems = append(problems, fmt.Sprintf("missing %q", required.name))
			continue
		}
		if got := string(config.GetType()); got != required.kind {
			problems = append(problems, fmt.Sprintf("%q is %s, want %s", required.name, got, required.kind))
		}
	}
	if len(problems) == 0 {
		return nil
	}

	found := make([]string, 0, len(db.Properties))
	for name := range db.Properties {
		found = append(found, name)
	}
	sort.Strings(found)
	return models.Errorf(models.KindConfiguration, "validate schema",
		"target database schema mismatch: %s (found properties: %s)",
		strings.Join(problems, ", "), strings.Join(found, ", "))
}

// EntryProperties builds the property values of a new database entry
func EntryProperties(meta models.PageMetadata) notionapi.Properties {
	return notionapi.Properties{
		PropertyTitle: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: meta.Title,
					},
				},
			},
		},
		PropertyDate: DateOnlyProperty{Start: meta.DateString()},
		PropertyArchived: notionapi.CheckboxProperty{
			Checkbox: meta.Archived,
		},
	}
}

// DateOnlyProperty is a date property value sent as a bare day, since
// notionapi.Date always marshals a full timestamp
type DateOnlyProperty struct {
	// Start is formatted as 2006-01-02
	Start string
}

func (p DateOnlyProperty) GetID() string {
	return ""
}

func (p DateOnlyProperty) GetType() notionapi.PropertyType {
	return notionapi.PropertyTypeDate
}

func (p DateOnlyProperty) MarshalJSON() ([]byte, error) {
	type dateValue struct {
		Start string `json:"start"`
	}
	return json.Marshal(struct {
		Type notionapi.PropertyType `json:"type"`
		Date dateValue              `json:"date"`
	}{
		Type: notionapi.PropertyTypeDate,
		Date: dateValue{Start: p.Start},
	})
}
