// Package filtertest provides schema fixtures shared by the filter package
// tests.
package filtertest

import (
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
)

// RootModel is the model Scope filters.
const RootModel = "person"

// Schema returns a small schema with a relation cycle
// (person → company → person), a relation to a model missing from the
// document (pet), and one field of every widget kind:
//
//	person:  age, name, is_active, joined, birthday, wake_up, status (choices), avatar (no lookups)
//	company: title, size, founded
func Schema() *schema.Schema {
	s := schema.New()

	person := &schema.Model{Name: "person", VerboseName: "Person", Relations: []string{"company", "pet"}}
	person.AddField(&schema.FieldSpec{Name: "age", VerboseName: "Age", Class: "IntegerField"})
	person.AddField(&schema.FieldSpec{Name: "name", VerboseName: "Name", Class: "CharField"})
	person.AddField(&schema.FieldSpec{Name: "is_active", VerboseName: "Active", Class: "BooleanField"})
	person.AddField(&schema.FieldSpec{Name: "joined", VerboseName: "Joined", Class: "DateTimeField"})
	person.AddField(&schema.FieldSpec{Name: "birthday", VerboseName: "Birthday", Class: "DateField"})
	person.AddField(&schema.FieldSpec{Name: "wake_up", VerboseName: "Wakes up", Class: "TimeField"})
	person.AddField(&schema.FieldSpec{Name: "status", VerboseName: "Status", Class: "CharField", Choices: []schema.Choice{
		{Value: "", Label: "---------"},
		{Value: "pending", Label: "Pending"},
		{Value: "approved", Label: "Approved"},
	}})
	person.AddField(&schema.FieldSpec{Name: "avatar", VerboseName: "Avatar", Class: "FileField"})
	s.Register(person)

	company := &schema.Model{Name: "company", VerboseName: "Company", Relations: []string{"person"}}
	company.AddField(&schema.FieldSpec{Name: "title", VerboseName: "Title", Class: "CharField"})
	company.AddField(&schema.FieldSpec{Name: "size", VerboseName: "Head count", Class: "IntegerField"})
	company.AddField(&schema.FieldSpec{Name: "founded", VerboseName: "Founded", Class: "DateTimeField"})
	s.Register(company)

	numeric := []string{"exact", "gt", "gte", "lt", "lte", "isnull"}
	s.SetLookups("IntegerField", numeric...)
	s.SetLookups("CharField", "exact", "iexact", "icontains", "startswith", "isnull")
	s.SetLookups("BooleanField", "exact", "isnull")
	s.SetLookups("DateTimeField", numeric...)
	s.SetLookups("DateField", numeric...)
	s.SetLookups("TimeField", numeric...)
	s.SetLookups("FileField")
	return s
}

// Scope binds Schema to RootModel.
func Scope() *schema.Scope {
	return &schema.Scope{Schema: Schema(), Root: RootModel}
}
