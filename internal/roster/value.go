package roster

import (
	"cmp"
	"fmt"

	"cricket-roster/internal/domain"

	"golang.org/x/text/collate"
)

type SortKey string

const (
	SortByID          SortKey = "id"
	SortByName        SortKey = "name"
	SortByDescription SortKey = "description"
	SortByCategory    SortKey = "category"
	SortByPoints      SortKey = "points"
	SortByRank        SortKey = "rank"
	SortByDateOfBirth SortKey = "dateOfBirth"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByID, SortByName, SortByDescription, SortByCategory,
		SortByPoints, SortByRank, SortByDateOfBirth:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(s); d {
	case Ascending, Descending:
		return d, nil
	case "":
		return Ascending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

func (d SortDirection) Reverse() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

type valueKind int

const (
	kindAbsent valueKind = iota
	kindString
	kindNumber
)

type fieldValue struct {
	kind valueKind
	str  string
	num  float64
}

func stringValue(s string) fieldValue {
	if s == "" {
		return fieldValue{kind: kindAbsent}
	}
	return fieldValue{kind: kindString, str: s}
}

func numberValue(n float64) fieldValue {
	return fieldValue{kind: kindNumber, num: n}
}

// valueAt classifies the field selected by key. Date of birth is numeric
// (Unix milliseconds) when present.
func valueAt(p domain.Player, key SortKey) fieldValue {
	switch key {
	case SortByID:
		return stringValue(p.ID)
	case SortByName:
		return stringValue(p.Name)
	case SortByDescription:
		return stringValue(p.Description)
	case SortByCategory:
		return stringValue(string(p.Category))
	case SortByPoints:
		return numberValue(p.Points)
	case SortByRank:
		return numberValue(float64(p.Rank))
	case SortByDateOfBirth:
		if p.DateOfBirth == nil {
			return fieldValue{kind: kindAbsent}
		}
		return numberValue(float64(p.DateOfBirth.UnixMilli()))
	}
	return fieldValue{kind: kindAbsent}
}

// compareValues orders a before b. Unlike or absent kinds compare equal.
func compareValues(col *collate.Collator, a, b fieldValue) int {
	switch {
	case a.kind == kindString && b.kind == kindString:
		return col.CompareString(a.str, b.str)
	case a.kind == kindNumber && b.kind == kindNumber:
		return cmp.Compare(a.num, b.num)
	}
	return 0
}
