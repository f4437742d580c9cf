package wizard

// Group names mirror the sections of a valuation report. Every field inside a
// group is optional: absence means "not yet provided", never an error.
const (
	GroupReportInfo     = "reportInfo"
	GroupIdentification = "identification"
	GroupLocation       = "location"
	GroupSite           = "site"
	GroupBuildings      = "buildings"
	GroupUtilities      = "utilities"
	GroupLocality       = "locality"
	GroupPlanning       = "planning"
	GroupLegal          = "legal"
	GroupMarket         = "market"
	GroupValuation      = "valuation"
	GroupDisclaimers    = "disclaimers"
	GroupCertificate    = "certificate"
	GroupAppendices     = "appendices"
)

// GroupData holds the fields of one report section.
type GroupData map[string]any

// WizardData is the full report document, keyed by group name.
type WizardData map[string]GroupData

// Groups lists every known group in report order.
func Groups() []string {
	return []string{
		GroupReportInfo,
		GroupIdentification,
		GroupLocation,
		GroupSite,
		GroupBuildings,
		GroupUtilities,
		GroupLocality,
		GroupPlanning,
		GroupLegal,
		GroupMarket,
		GroupValuation,
		GroupDisclaimers,
		GroupCertificate,
		GroupAppendices,
	}
}

// Clone copies the top level and each group map. Field values themselves are
// shared; callers replace values rather than mutating them in place.
func (d WizardData) Clone() WizardData {
	out := make(WizardData, len(d))
	for group, fields := range d {
		cp := make(GroupData, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		out[group] = cp
	}
	return out
}

// Group returns the named group, creating it on first access. Write paths
// only; readers use View so a lookup never inserts an empty group.
func (d WizardData) Group(name string) GroupData {
	g, ok := d[name]
	if !ok {
		g = GroupData{}
		d[name] = g
	}
	return g
}

// View returns the named group without creating it. The result may be nil;
// reads from a nil map are safe.
func (d WizardData) View(name string) GroupData {
	return d[name]
}

// Field returns a single field value, or nil when the group or field is absent.
func (d WizardData) Field(group, field string) any {
	g, ok := d[group]
	if !ok {
		return nil
	}
	return g[field]
}
