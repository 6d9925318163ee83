package diag

// Reporter принимает диагностики от фаз генерации.
type Reporter interface {
	Report(code Code, sev Severity, primary Location, msg string, notes []Note)
}

// BagReporter пишет диагностики в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary Location, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Notes: notes,
	})
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, primary Location, msg string) {
	if r != nil {
		r.Report(code, SevError, primary, msg, nil)
	}
}
