package whatsapp

// Field length limits documented for the WhatsApp Business Cloud API.
// Outbound content is truncated to these at the dispatch boundary.
const (
	MaxTextBody = 4096

	MaxButtonBody   = 1024
	MaxButtonFooter = 60
	MaxButtonID     = 256
	MaxButtonTitle  = 20
	MaxButtons      = 3

	MaxListBody     = 4096
	MaxListHeader   = 60
	MaxListFooter   = 60
	MaxListButton   = 20
	MaxSectionTitle = 24
	MaxSections     = 10
	MaxRowID        = 200
	MaxRowTitle     = 24
	MaxRowDesc      = 72
	MaxRows         = 10
)

// Truncate shortens s to at most max characters, preserving rune
// boundaries. Provider limits are documented in characters.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
