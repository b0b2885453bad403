package firestore

import "github.com/m-mizutani/fireconf"

// Indexes returns the composite indexes needed by the ordered queries of
// this package. Equality-only filters are served by single-field indexes.
func Indexes() *fireconf.Config {
	asc := func(path string) fireconf.IndexField {
		return fireconf.IndexField{Path: path, Order: fireconf.OrderAscending}
	}
	desc := func(path string) fireconf.IndexField {
		return fireconf.IndexField{Path: path, Order: fireconf.OrderDescending}
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: evaluationsCollection,
				Indexes: []fireconf.Index{
					// history of a risk, newest first
					{Fields: []fireconf.IndexField{asc("risk_id"), desc("eval_date")}},
				},
			},
			{
				Name: activitiesCollection,
				Indexes: []fireconf.Index{
					{Fields: []fireconf.IndexField{asc("risk_id"), asc("created_at")}},
					// open activities for the overdue scan
					{Fields: []fireconf.IndexField{asc("done"), asc("created_at")}},
				},
			},
		},
	}
}
