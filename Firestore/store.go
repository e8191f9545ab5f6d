package Firestore

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"Firewatch/Models"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	tasksCollection     = "check_tasks"
	schedulesCollection = "check_schedules"
	countersCollection  = "counters"
)

// Store implements the task engine's store ports against Firestore, for
// deployments that keep the mobile app and the backend on the same Firebase
// project. All timestamp conversion happens here, at the adapter edge;
// engine code only ever sees time.Time.
type Store struct {
	client *firestore.Client
}

// Connect initializes the Firestore client from the service account key in
// FIREBASE_CREDENTIALS.
func Connect(ctx context.Context) (*Store, error) {
	credentials := os.Getenv("FIREBASE_CREDENTIALS")
	if credentials == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS not set")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentials))
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %v", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %v", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// taskDoc is the Firestore shape of a check task. Optional instants are
// stored as zero timestamps; the conversion to *time.Time happens only in
// toModel/fromModel.
type taskDoc struct {
	ID            int64     `firestore:"id"`
	OrgID         int64     `firestore:"org_id"`
	SiteID        int64     `firestore:"site_id"`
	AssetID       int64     `firestore:"asset_id"`
	TemplateID    int64     `firestore:"template_id"`
	ScheduleID    int64     `firestore:"schedule_id"`
	DueAt         time.Time `firestore:"due_at"`
	Status        string    `firestore:"status"`
	ClaimedBy     int64     `firestore:"claimed_by"`
	ClaimedByName string    `firestore:"claimed_by_name"`
	ClaimedAt     time.Time `firestore:"claimed_at"`
	CompletedAt   time.Time `firestore:"completed_at"`
	CompletedBy   int64     `firestore:"completed_by"`
	EntryID       int64     `firestore:"entry_id"`
}

func fromModel(task Models.CheckTask) taskDoc {
	doc := taskDoc{
		ID:            int64(task.ID),
		OrgID:         int64(task.OrgID),
		SiteID:        int64(task.SiteID),
		AssetID:       int64(task.AssetID),
		TemplateID:    int64(task.TemplateID),
		ScheduleID:    int64(task.ScheduleID),
		DueAt:         task.DueAt,
		Status:        task.Status,
		ClaimedBy:     int64(task.ClaimedBy),
		ClaimedByName: task.ClaimedByName,
		CompletedBy:   int64(task.CompletedBy),
		EntryID:       int64(task.EntryID),
	}
	if task.ClaimedAt != nil {
		doc.ClaimedAt = *task.ClaimedAt
	}
	if task.CompletedAt != nil {
		doc.CompletedAt = *task.CompletedAt
	}
	return doc
}

func toModel(doc taskDoc) Models.CheckTask {
	task := Models.CheckTask{
		OrgID:         uint(doc.OrgID),
		SiteID:        uint(doc.SiteID),
		AssetID:       uint(doc.AssetID),
		TemplateID:    uint(doc.TemplateID),
		ScheduleID:    uint(doc.ScheduleID),
		DueAt:         doc.DueAt,
		Status:        doc.Status,
		ClaimedBy:     uint(doc.ClaimedBy),
		ClaimedByName: doc.ClaimedByName,
		CompletedBy:   uint(doc.CompletedBy),
		EntryID:       uint(doc.EntryID),
	}
	task.ID = uint(doc.ID)
	if !doc.ClaimedAt.IsZero() {
		claimedAt := doc.ClaimedAt
		task.ClaimedAt = &claimedAt
	}
	if !doc.CompletedAt.IsZero() {
		completedAt := doc.CompletedAt
		task.CompletedAt = &completedAt
	}
	return task
}

func (s *Store) queryTasks(ctx context.Context, field string, value int64) ([]Models.CheckTask, error) {
	it := s.client.Collection(tasksCollection).Where(field, "==", value).Documents(ctx)
	defer it.Stop()

	var tasks []Models.CheckTask
	for {
		snapshot, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying %s: %v", tasksCollection, err)
		}
		var doc taskDoc
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding task %s: %v", snapshot.Ref.ID, err)
		}
		tasks = append(tasks, toModel(doc))
	}
	return tasks, nil
}

// TasksByOrg returns every task belonging to an organization.
func (s *Store) TasksByOrg(ctx context.Context, orgID uint) ([]Models.CheckTask, error) {
	return s.queryTasks(ctx, "org_id", int64(orgID))
}

// TasksBySchedule returns every task materialized from one schedule.
func (s *Store) TasksBySchedule(ctx context.Context, scheduleID uint) ([]Models.CheckTask, error) {
	return s.queryTasks(ctx, "schedule_id", int64(scheduleID))
}

// nextCounterValue interprets the result of reading the counter document.
// Only a genuine NotFound starts the sequence at 1; any other read failure
// must abort the allocation, otherwise a transient error would reset the
// counter and later inserts would overwrite existing task documents.
func nextCounterValue(snapshot *firestore.DocumentSnapshot, err error) (int64, error) {
	if status.Code(err) == codes.NotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	value, err := snapshot.DataAt("value")
	if err != nil {
		return 0, err
	}
	current, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("counter value has type %T, want int64", value)
	}
	return current + 1, nil
}

// InsertTask allocates an id from the counter document and writes the task.
func (s *Store) InsertTask(ctx context.Context, task *Models.CheckTask) error {
	counterRef := s.client.Collection(countersCollection).Doc(tasksCollection)
	var nextID int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(counterRef)
		nextID, err = nextCounterValue(snapshot, err)
		if err != nil {
			return err
		}
		return tx.Set(counterRef, map[string]interface{}{"value": nextID})
	})
	if err != nil {
		return fmt.Errorf("allocating task id: %v", err)
	}

	task.ID = uint(nextID)
	doc := fromModel(*task)
	ref := s.client.Collection(tasksCollection).Doc(strconv.FormatInt(nextID, 10))
	if _, err := ref.Set(ctx, doc); err != nil {
		return fmt.Errorf("writing task %d: %v", nextID, err)
	}
	return nil
}

// UpdateTaskFields writes only the named fields of one task document, so
// concurrent edits to other fields are never clobbered.
func (s *Store) UpdateTaskFields(ctx context.Context, taskID uint, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		// Firestore has no nullable timestamps here; cleared instants are
		// stored as the zero time and mapped back to nil in toModel.
		if value == nil {
			value = time.Time{}
		}
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	ref := s.client.Collection(tasksCollection).Doc(strconv.FormatUint(uint64(taskID), 10))
	if _, err := ref.Update(ctx, updates); err != nil {
		return fmt.Errorf("updating task %d: %v", taskID, err)
	}
	return nil
}

// scheduleDoc is the Firestore shape of a check schedule.
type scheduleDoc struct {
	ID         int64     `firestore:"id"`
	OrgID      int64     `firestore:"org_id"`
	SiteID     int64     `firestore:"site_id"`
	TemplateID int64     `firestore:"template_id"`
	Frequency  string    `firestore:"frequency"`
	RRule      string    `firestore:"rrule"`
	StartDate  time.Time `firestore:"start_date"`
	AssetIDs   []int64   `firestore:"asset_ids"`
	Active     bool      `firestore:"active"`
}

// ActiveSchedulesByOrg returns the schedules still generating tasks.
func (s *Store) ActiveSchedulesByOrg(ctx context.Context, orgID uint) ([]Models.CheckSchedule, error) {
	it := s.client.Collection(schedulesCollection).
		Where("org_id", "==", int64(orgID)).
		Where("active", "==", true).
		Documents(ctx)
	defer it.Stop()

	var schedules []Models.CheckSchedule
	for {
		snapshot, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying %s: %v", schedulesCollection, err)
		}
		var doc scheduleDoc
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding schedule %s: %v", snapshot.Ref.ID, err)
		}

		schedule := Models.CheckSchedule{
			OrgID:      uint(doc.OrgID),
			SiteID:     uint(doc.SiteID),
			TemplateID: uint(doc.TemplateID),
			Frequency:  doc.Frequency,
			RRule:      doc.RRule,
			StartDate:  doc.StartDate,
			Active:     doc.Active,
		}
		schedule.ID = uint(doc.ID)
		assetIDs := make([]uint, 0, len(doc.AssetIDs))
		for _, id := range doc.AssetIDs {
			assetIDs = append(assetIDs, uint(id))
		}
		if err := schedule.SetTargetAssets(assetIDs); err != nil {
			return nil, fmt.Errorf("encoding schedule %s assets: %v", snapshot.Ref.ID, err)
		}
		schedules = append(schedules, schedule)
	}
	return schedules, nil
}
