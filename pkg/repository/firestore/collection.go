package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names without prefix
const (
	riskInfosCollection   = "risk_infos"
	risksCollection       = "risks"
	riskKeysCollection    = "risk_keys"
	evaluationsCollection = "evaluations"
	processesCollection   = "processes"
	processDataCollection = "process_data"
	partnersCollection    = "partners"
	projectsCollection    = "projects"
	tasksCollection       = "tasks"
	activitiesCollection  = "activities"
	countersCollection    = "counters"
)

// collection holds what every repository shares: the client, the collection
// prefix and the ID counters.
type collection struct {
	client           *firestore.Client
	collectionPrefix string
}

func (c *collection) name(base string) string {
	if c.collectionPrefix != "" {
		return c.collectionPrefix + "_" + base
	}
	return base
}

func (c *collection) ref(base string) *firestore.CollectionRef {
	return c.client.Collection(c.name(base))
}

func (c *collection) doc(base string, id int64) *firestore.DocumentRef {
	return c.ref(base).Doc(fmt.Sprintf("%d", id))
}

func (c *collection) counterRef(counter string) *firestore.DocumentRef {
	return c.ref(countersCollection).Doc(counter)
}

// allocateID reads and advances a counter inside tx. All other reads of the
// transaction must happen before it is called.
func (c *collection) allocateID(tx *firestore.Transaction, counter string) (int64, error) {
	counterRef := c.counterRef(counter)

	doc, err := tx.Get(counterRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 1, tx.Set(counterRef, map[string]interface{}{
				"value": int64(1),
			})
		}
		return 0, goerr.Wrap(err, "failed to get counter", goerr.V("counter", counter))
	}

	currentValue, err := doc.DataAt("value")
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get counter value", goerr.V("counter", counter))
	}

	nextID := currentValue.(int64) + 1
	if err := tx.Update(counterRef, []firestore.Update{
		{Path: "value", Value: nextID},
	}); err != nil {
		return 0, err
	}
	return nextID, nil
}

func (c *collection) getNextID(ctx context.Context, counter string) (int64, error) {
	var nextID int64
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		id, err := c.allocateID(tx, counter)
		if err != nil {
			return err
		}
		nextID = id
		return nil
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID", goerr.V("counter", counter))
	}
	return nextID, nil
}

// deleteWhere deletes every document of query
func (c *collection) deleteWhere(ctx context.Context, query firestore.Query) error {
	iter := query.Documents(ctx)
	defer iter.Stop()

	bulkWriter := c.client.BulkWriter(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate documents for deletion")
		}

		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			return goerr.Wrap(err, "failed to delete document", goerr.V("path", doc.Ref.Path))
		}
	}

	bulkWriter.End()
	return nil
}

// getDoc loads the document at ref into dst, mapping a missing document to
// ErrNotFound
func getDoc(ctx context.Context, ref *firestore.DocumentRef, dst interface{}, what string) error {
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, what+" not found", goerr.V("id", ref.ID))
		}
		return goerr.Wrap(err, "failed to get "+what, goerr.V("id", ref.ID))
	}
	if err := doc.DataTo(dst); err != nil {
		return goerr.Wrap(err, "failed to unmarshal "+what, goerr.V("id", ref.ID))
	}
	return nil
}

// listDocs decodes every document of query with decode
func listDocs[D any, M any](ctx context.Context, query firestore.Query, what string, decode func(*D) *M) ([]*M, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var result []*M
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate "+what)
		}

		var d D
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal "+what, goerr.V("id", doc.Ref.ID))
		}
		result = append(result, decode(&d))
	}
	return result, nil
}

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
