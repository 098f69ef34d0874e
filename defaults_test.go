package hxmount

import (
	"reflect"
	"testing"
)

func TestDefaultPropsSelectorWinsOverWildcard(t *testing.T) {
	d := NewDefaultProps()
	d.Set(Props{"verbose": true}, "my-tag")
	d.Set(Props{"verbose": false}, Wildcard)

	if got := d.Get("my-tag")["verbose"]; got != true {
		t.Errorf("my-tag verbose = %v, want true", got)
	}
	if got := d.Get("other-tag")["verbose"]; got != false {
		t.Errorf("other-tag verbose = %v, want false", got)
	}
}

func TestDefaultPropsShallowMerge(t *testing.T) {
	d := NewDefaultProps()
	d.Set(Props{"a": 1, "b": 1}, "x")
	d.Set(Props{"b": 2, "c": 2}, "x")

	want := Props{"a": 1, "b": 2, "c": 2}
	if got := d.Get("x"); !reflect.DeepEqual(got, want) {
		t.Errorf("Get(x) = %v, want %v", got, want)
	}
}

func TestDefaultPropsMultipleSelectors(t *testing.T) {
	d := NewDefaultProps()
	d.Set(Props{"lnf": true}, "a-tag", "b-tag")

	for _, sel := range []string{"a-tag", "b-tag"} {
		if got := d.Get(sel)["lnf"]; got != true {
			t.Errorf("%s lnf = %v, want true", sel, got)
		}
	}
}

func TestDefaultPropsGetReturnsCopy(t *testing.T) {
	d := NewDefaultProps()
	d.Set(Props{"name": "a"}, "x")

	got := d.Get("x")
	got["name"] = "mutated"

	if d.Get("x")["name"] != "a" {
		t.Error("mutating the result of Get changed the registry")
	}
}

func TestDefaultPropsLookup(t *testing.T) {
	d := NewDefaultProps()
	d.Set(Props{"name": "any", "verbose": false}, Wildcard)
	d.Set(Props{"name": "card"}, "my-card")
	d.Set(Props{"name": "special"}, "my-card#main")

	tests := []struct {
		id   string
		want Props
	}{
		{id: "", want: Props{"name": "card", "verbose": false}},
		{id: "other", want: Props{"name": "card", "verbose": false}},
		{id: "main", want: Props{"name": "special", "verbose": false}},
	}
	for _, tt := range tests {
		if got := d.Lookup("my-card", tt.id); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lookup(my-card, %q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestDefaultPropsReadsCurrentState(t *testing.T) {
	d := NewDefaultProps()
	before := d.Get("x")
	d.Set(Props{"verbose": true}, "x")

	if len(before) != 0 {
		t.Errorf("earlier result changed: %v", before)
	}
	if d.Get("x")["verbose"] != true {
		t.Error("lookup after Set should see the new value")
	}
}

func TestDefaultPropsSelectors(t *testing.T) {
	d := NewDefaultProps()
	d.Set(Props{}, "b", Wildcard, "a")

	want := []string{"*", "a", "b"}
	if got := d.Selectors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Selectors() = %v, want %v", got, want)
	}
}
