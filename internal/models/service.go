package models

// Service is a bookable barbershop service. Price is in whole currency units.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Duration    int    `json:"duration"` // minutes
	Description string `json:"description"`
	Image       string `json:"image"`
}

// DefaultImage is used for services created without an image.
const DefaultImage = "/placeholder.svg"

// DefaultServices is the catalog seeded on first start.
func DefaultServices() []Service {
	return []Service{
		{ID: "1", Name: "Corte Clásico", Price: 15000, Duration: 30, Description: "Corte tradicional con tijeras y máquina", Image: DefaultImage},
		{ID: "2", Name: "Fade Moderno", Price: 20000, Duration: 45, Description: "Degradado moderno con terminaciones perfectas", Image: DefaultImage},
		{ID: "3", Name: "Corte + Barba", Price: 25000, Duration: 60, Description: "Servicio completo de corte y arreglo de barba", Image: DefaultImage},
		{ID: "4", Name: "Degradado Premium", Price: 22000, Duration: 50, Description: "Degradado de alta precisión con detalles", Image: DefaultImage},
		{ID: "5", Name: "Corte Niños", Price: 12000, Duration: 25, Description: "Corte especial para los más pequeños", Image: DefaultImage},
		{ID: "6", Name: "Arreglo de Cejas", Price: 8000, Duration: 15, Description: "Perfilado y arreglo profesional de cejas", Image: DefaultImage},
	}
}
