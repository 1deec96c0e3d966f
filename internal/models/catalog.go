package models

// Category and Genre are shared reference data; titles point at them by slug on the wire.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);uniqueIndex;not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);uniqueIndex;not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

type Title struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(256);not null;index" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Year        int       `gorm:"not null;index" json:"year"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category"`
	Genres      []Genre   `gorm:"many2many:genre_titles;joinForeignKey:TitleID;joinReferences:GenreID" json:"genre"`

	// Rating is AVG(reviews.score), filled by the title queries only.
	Rating *float64 `gorm:"->;-:migration" json:"rating"`
}

// GenreTitle is the title <-> genre association row.
type GenreTitle struct {
	TitleID uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey;index"`

	Title Title `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE" json:"-"`
	Genre Genre `gorm:"foreignKey:GenreID;constraint:OnDelete:CASCADE" json:"-"`
}
