// Package format renders prices, dates and phone numbers for the es-AR
// locale. Persisted values are never formatted.
package format

import (
	"fmt"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	isoDate = "2006-01-02"
	region  = "AR"
)

var printer = message.NewPrinter(language.MustParse("es-AR"))

var (
	weekdays      = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	shortWeekdays = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}
	months        = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
	shortMonths   = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}
)

// Price renders whole currency units with locale grouping, e.g. "$15.000".
func Price(amount int) string {
	return printer.Sprintf("$%d", amount)
}

// LongDate renders an ISO date as "jueves, 15 de octubre de 2026". Invalid
// input is returned unchanged.
func LongDate(iso string) string {
	d, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s, %d de %s de %d", weekdays[d.Weekday()], d.Day(), months[d.Month()-1], d.Year())
}

// ShortDate renders an ISO date as "jue, 15 oct 2026".
func ShortDate(iso string) string {
	d, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s, %d %s %d", shortWeekdays[d.Weekday()], d.Day(), shortMonths[d.Month()-1], d.Year())
}

// Phone renders raw in international format assuming an Argentine number
// when no country code is given. Unparseable input is returned unchanged.
func Phone(raw string) string {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
