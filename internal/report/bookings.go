// Package report exports the admin booking view as an Excel workbook.
package report

import (
	"fmt"
	"io"

	"barbershop/internal/bookings"
	"barbershop/internal/models"
)

// SheetName is the name of the bookings sheet.
const SheetName = "Reservas"

// ContentType of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columns = []string{
	"ID", "Cliente", "Email", "Teléfono", "Servicio", "Precio",
	"Fecha", "Hora", "Estado", "Pago", "Creada",
}

// WriteBookings writes list as one sheet followed by a totals row holding
// the booking count and the paid revenue.
func WriteBookings(out io.Writer, list []models.Booking) error {
	w := newSheetWriter()
	defer w.close()

	if err := w.addSheet(SheetName); err != nil {
		return err
	}
	if err := w.writeHeader(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range list {
		row := []any{
			b.ID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
			b.Service.Name, b.Service.Price,
			b.Date, b.Time, b.Status, b.PaymentStatus, createdLabel(b),
		}
		if err := w.writeRow(row); err != nil {
			return fmt.Errorf("write booking %s: %w", b.ID, err)
		}
	}

	totals := []any{"Total", len(list), "", "", "Ingresos", bookings.Revenue(list)}
	if err := w.writeStyled(totals, true); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	return w.save(out)
}

// createdLabel renders the creation timestamp in UTC without seconds. A
// malformed value is written as stored.
func createdLabel(b models.Booking) string {
	created := b.Created()
	if created.IsZero() {
		return b.CreatedAt
	}
	return created.UTC().Format("2006-01-02 15:04")
}
