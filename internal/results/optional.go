package results

// Optional is a value that may be absent. The zero value is absent.
type Optional struct {
	value   string
	present bool
}

// Some returns a present Optional holding v. An empty string is a valid
// present value.
func Some(v string) Optional {
	return Optional{value: v, present: true}
}

// Absent returns an absent Optional.
func Absent() Optional {
	return Optional{}
}

// Present reports whether a value is held.
func (o Optional) Present() bool { return o.present }

// Get returns the value and whether it is present.
func (o Optional) Get() (string, bool) { return o.value, o.present }

// String returns the value. Only meaningful when Present() is true.
func (o Optional) String() string { return o.value }

// OrElse returns the value when present, otherwise fallback.
func (o Optional) OrElse(fallback string) string {
	if o.present {
		return o.value
	}
	return fallback
}
