package models

// GarmentDescriptor is a catalog garment as seen by the try-on core.
type GarmentDescriptor struct {
	ID          string   `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Image       string   `json:"image,omitempty" db:"image"`
	Color       string   `json:"color" db:"color"`
	Category    string   `json:"category" db:"category"`
	Subcategory string   `json:"subcategory,omitempty" db:"subcategory"`
	ArticleType string   `json:"articleType,omitempty" db:"article_type"`
	Tags        []string `json:"tags,omitempty" db:"-"`
	Gender      string   `json:"gender,omitempty" db:"gender"`
}

// GarmentType is the silhouette used to draw a garment.
type GarmentType string

const (
	GarmentTop    GarmentType = "top"
	GarmentPants  GarmentType = "pants"
	GarmentShorts GarmentType = "shorts"
	GarmentSkirt  GarmentType = "skirt"
	GarmentDress  GarmentType = "dress"
)
