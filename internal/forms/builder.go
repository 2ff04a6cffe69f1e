package forms

import (
	"fmt"
	"strings"

	"shipping-charge-service/internal/models"
)

// Fields names the form fields a carrier expects to get back
type Fields struct {
	Sender   string
	Receiver string
	// Option is empty for carriers without priced transport options
	Option string
}

// Context is everything a carrier knows when it asks for an extra form.
// Any combination of origin, candidates and options may be set.
type Context struct {
	Carrier    models.APIType
	Method     string
	Fields     Fields
	Currency   string
	OriginCode string
	// Origin is a free text origin. Carriers resolve it to OriginCode
	// before building; the sender field only ever carries a code.
	Origin          string
	DestinationCode string
	Candidates      []models.CodeEntry
	Options         []models.PricedOption
}

// Builder renders extra form descriptors
type Builder struct {
	lookupURL  string
	detailsURL string
}

// NewBuilder creates a builder. Both URL templates take the method code as their only verb.
func NewBuilder(lookupURL, detailsURL string) *Builder {
	return &Builder{lookupURL: lookupURL, detailsURL: detailsURL}
}

// Build returns the form descriptor for c
func (b *Builder) Build(c Context) *models.ExtraForm {
	form := &models.ExtraForm{
		Carrier: c.Carrier,
		Method:  c.Method,
	}
	if b.lookupURL != "" && c.Method != "" {
		form.LookupURL = fmt.Sprintf(b.lookupURL, c.Method)
	}
	if b.detailsURL != "" && c.Method != "" {
		form.DetailsURL = fmt.Sprintf(b.detailsURL, c.Method)
	}

	sender := models.FormField{
		Name:     c.Fields.Sender,
		Label:    "Origin",
		Type:     models.FieldHidden,
		Initial:  c.OriginCode,
		Required: true,
	}
	form.Fields = append(form.Fields, sender)

	receiver := models.FormField{
		Name:     c.Fields.Receiver,
		Label:    "Destination city",
		Type:     models.FieldLookup,
		Initial:  c.DestinationCode,
		Required: true,
	}
	if len(c.Candidates) > 0 {
		receiver.Type = models.FieldSelect
		for _, candidate := range c.Candidates {
			receiver.Choices = append(receiver.Choices, models.FormChoice{
				Value: candidate.Code,
				Label: candidateLabel(candidate),
			})
		}
	} else if c.DestinationCode != "" && len(c.Options) > 0 {
		receiver.Type = models.FieldHidden
	}
	form.Fields = append(form.Fields, receiver)

	if c.Fields.Option != "" && len(c.Options) > 0 {
		option := models.FormField{
			Name:     c.Fields.Option,
			Label:    "Transport",
			Type:     models.FieldRadio,
			Required: true,
		}
		for _, o := range c.Options {
			option.Choices = append(option.Choices, models.FormChoice{
				Value: o.Code,
				Label: OptionSummary(o, c.Currency),
			})
		}
		form.Fields = append(form.Fields, option)
	}

	return form
}

// OptionSummary renders a priced option as "<title>: <cost> <currency>. Including: <services>"
func OptionSummary(o models.PricedOption, currency string) string {
	if currency == "" {
		currency = "RUR"
	}
	summary := fmt.Sprintf("%s: %s %s", o.Title, o.Cost.StringFixed(2), currency)
	if o.Term != "" {
		summary += fmt.Sprintf(" (%s)", o.Term)
	}
	if len(o.Services) == 0 {
		return summary
	}
	parts := make([]string, 0, len(o.Services))
	for _, s := range o.Services {
		part := fmt.Sprintf("%s %s", s.ServiceType, s.Cost.StringFixed(2))
		if s.Info != "" {
			part += " " + s.Info
		}
		parts = append(parts, part)
	}
	return summary + ". Including: " + strings.Join(parts, ", ")
}

func candidateLabel(c models.CodeEntry) string {
	if c.Type == "" {
		return c.Title
	}
	return fmt.Sprintf("%s (%s)", c.Title, c.Type)
}
