// Package widget maps a field and lookup to the kind of input used for the
// condition value, and coerces raw input into the value stored in the
// expression.
package widget

import (
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
)

// Kind is the value-input category of a condition.
type Kind string

const (
	Number   Kind = "number"
	Boolean  Kind = "boolean"
	Text     Kind = "text"
	Date     Kind = "date"
	DateTime Kind = "datetime"
	Time     Kind = "time"
	Choice   Kind = "choice"
)

// LookupIsNull switches every field to a boolean input.
const LookupIsNull = "isnull"

// classKinds maps ORM field classes to input kinds. Classes absent from the
// table fall back to Text.
var classKinds = map[string]Kind{
	// numeric family
	"AutoField":                 Number,
	"BigAutoField":              Number,
	"SmallAutoField":            Number,
	"IntegerField":              Number,
	"BigIntegerField":           Number,
	"SmallIntegerField":         Number,
	"PositiveIntegerField":      Number,
	"PositiveBigIntegerField":   Number,
	"PositiveSmallIntegerField": Number,
	"FloatField":                Number,
	"DecimalField":              Number,
	"DurationField":             Number,

	"BooleanField":     Boolean,
	"NullBooleanField": Boolean,

	// text family
	"CharField":             Text,
	"TextField":             Text,
	"EmailField":            Text,
	"SlugField":             Text,
	"URLField":              Text,
	"UUIDField":             Text,
	"GenericIPAddressField": Text,
	"IPAddressField":        Text,
	"FilePathField":         Text,
	"FileField":             Text,
	"ImageField":            Text,
	"JSONField":             Text,

	"DateField":     Date,
	"DateTimeField": DateTime,
	"TimeField":     Time,
}

// KindFor picks the input kind for a field and lookup. The first matching
// rule wins: an isnull lookup is always Boolean, then enumerated fields are
// Choice, then the class table applies.
func KindFor(f *schema.FieldSpec, lookup string) Kind {
	if lookup == LookupIsNull {
		return Boolean
	}
	if f.HasChoices() {
		return Choice
	}
	if k, ok := classKinds[f.Class]; ok {
		return k
	}
	return Text
}

// Default is the value a condition starts with once a field is picked.
func Default(k Kind) any {
	if k == Boolean {
		return false
	}
	return ""
}
