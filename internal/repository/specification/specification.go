package specification

import "gorm.io/gorm"

// Specification narrows or shapes a query. Repositories accept any number of them.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Apply applies specs to db in order.
func Apply(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		if spec != nil {
			db = spec.Apply(db)
		}
	}
	return db
}
