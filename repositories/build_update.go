package repositories

// BuildFields carries the descriptive fields of a build at creation time.
type BuildFields struct {
	Title       string
	Description string
	CarMake     string
	CarModel    string
	CarYear     int
}

// BuildUpdate is a partial update of a build's descriptive fields. A nil
// field leaves the stored value unchanged; a non-nil field overwrites it,
// even with an empty value.
type BuildUpdate struct {
	Title       *string
	Description *string
	CarMake     *string
	CarModel    *string
	CarYear     *int
}

// Changes returns the column updates for the fields that are present.
func (u BuildUpdate) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if u.Title != nil {
		changes["title"] = *u.Title
	}
	if u.Description != nil {
		changes["description"] = *u.Description
	}
	if u.CarMake != nil {
		changes["car_make"] = *u.CarMake
	}
	if u.CarModel != nil {
		changes["car_model"] = *u.CarModel
	}
	if u.CarYear != nil {
		changes["car_year"] = *u.CarYear
	}
	return changes
}
