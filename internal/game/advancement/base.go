package advancement

// base carries the serialized form and host collaborators shared by every
// variant.
type base struct {
	data *Data
	host Host
}

// ID returns the advancement's stable identifier within its owning item.
func (b *base) ID() string { return b.data.ID }

// Type returns the variant discriminant.
func (b *base) Type() Type { return b.data.Type }

// Order returns the step priority within a level.
func (b *base) Order() int { return b.data.Order }

// Data returns the serialized form, including current value storage.
func (b *base) Data() *Data { return b.data }

// title returns the configured title, falling back to the localized
// default for the variant.
func (b *base) title() string {
	if b.data.Title != "" {
		return b.data.Title
	}
	return b.host.Lang().Localize("advancement."+string(b.data.Type)+".title", nil)
}
