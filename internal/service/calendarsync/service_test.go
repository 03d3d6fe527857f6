package calendarsync

import (
	"fmt"
	"testing"
	"time"

	"kruzhki-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/api/calendar/v3"
)

type fakeSubRepo struct {
	subs []*models.Subscription
}

func (f *fakeSubRepo) GetAll() ([]*models.Subscription, error)      { return f.subs, nil }
func (f *fakeSubRepo) GetByID(string) (*models.Subscription, error) { return nil, nil }
func (f *fakeSubRepo) Create(*models.Subscription) error            { return nil }
func (f *fakeSubRepo) UpdateCounters(*models.Subscription) error    { return nil }
func (f *fakeSubRepo) Delete(string) error                          { return nil }

type fakeLessonRepo struct {
	lessons []*models.Lesson
}

func (f *fakeLessonRepo) GetAll() ([]*models.Lesson, error)                  { return f.lessons, nil }
func (f *fakeLessonRepo) GetByID(int) (*models.Lesson, error)                { return nil, nil }
func (f *fakeLessonRepo) GetBySubscription(string) ([]*models.Lesson, error) { return nil, nil }
func (f *fakeLessonRepo) GetByDate(string) ([]*models.Lesson, error)         { return nil, nil }
func (f *fakeLessonRepo) MaxID() (int, error)                                { return 0, nil }
func (f *fakeLessonRepo) Append([]*models.Lesson) error                      { return nil }
func (f *fakeLessonRepo) UpdateMark(int, string, string) error               { return nil }
func (f *fakeLessonRepo) DeleteUnmarked(string) (int, error)                 { return 0, nil }
func (f *fakeLessonRepo) DeleteBySubscription(string) (int, error)           { return 0, nil }

type fakeForecastRepo struct {
	rows []*models.ForecastPayment
}

func (f *fakeForecastRepo) GetAll() ([]*models.ForecastPayment, error) { return f.rows, nil }
func (f *fakeForecastRepo) Replace([]*models.ForecastPayment) error    { return nil }
func (f *fakeForecastRepo) Delete(*models.ForecastPayment) error       { return nil }

// fakeEvents - календарь в памяти со счетчиками записей.
type fakeEvents struct {
	events  []*calendar.Event
	nextID  int
	inserts int
	updates int
	deletes int
}

func (f *fakeEvents) List() ([]*calendar.Event, error) {
	out := make([]*calendar.Event, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeEvents) Insert(ev *calendar.Event) (*calendar.Event, error) {
	f.nextID++
	f.inserts++
	stored := *ev
	stored.Id = fmt.Sprintf("ev%d", f.nextID)
	stored.Created = time.Date(2024, 1, 1, 0, 0, f.nextID, 0, time.UTC).Format(time.RFC3339)
	f.events = append(f.events, &stored)
	return &stored, nil
}

func (f *fakeEvents) Update(eventID string, ev *calendar.Event) error {
	for i, have := range f.events {
		if have.Id == eventID {
			f.updates++
			stored := *ev
			stored.Id = have.Id
			stored.Created = have.Created
			f.events[i] = &stored
			return nil
		}
	}
	return fmt.Errorf("событие %s не найдено", eventID)
}

func (f *fakeEvents) Delete(eventID string) error {
	for i, have := range f.events {
		if have.Id == eventID {
			f.deletes++
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("событие %s не найдено", eventID)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(t *testing.T, subs *fakeSubRepo, lessons *fakeLessonRepo, fc *fakeForecastRepo, events *fakeEvents) *syncService {
	t.Helper()
	svc, err := NewCalendarSyncService(subs, lessons, fc, events, "UTC")
	require.NoError(t, err)
	return svc.(*syncService)
}

func testLesson(id int, mark string) *models.Lesson {
	return &models.Lesson{
		ID: id, SubscriptionID: "s1", Date: date(2025, 9, 1),
		StartTime: "17:00", EndTime: "18:00",
		Status: models.StatusForMark(mark), Child: "Маша", Mark: mark,
	}
}

var testSub = &models.Subscription{ID: "s1", Child: "Маша", Circle: "Шахматы"}

func TestSyncLessonsConverges(t *testing.T) {
	events := &fakeEvents{}
	svc := newService(t,
		&fakeSubRepo{subs: []*models.Subscription{testSub}},
		&fakeLessonRepo{lessons: []*models.Lesson{testLesson(1, ""), testLesson(2, models.MarkAttended)}},
		&fakeForecastRepo{}, events)

	first, err := svc.SyncLessons()
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Len(t, events.events, 2)

	// Повторный запуск без изменений журнала ничего не пишет.
	second, err := svc.SyncLessons()
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, 2, second.Unchanged)
	assert.Equal(t, 0, events.updates)
	assert.Len(t, events.events, 2)
}

func TestSyncLessonsUpdatesChangedMark(t *testing.T) {
	events := &fakeEvents{}
	lesson := testLesson(1, "")
	svc := newService(t,
		&fakeSubRepo{subs: []*models.Subscription{testSub}},
		&fakeLessonRepo{lessons: []*models.Lesson{lesson}},
		&fakeForecastRepo{}, events)

	_, err := svc.SyncLessons()
	require.NoError(t, err)

	lesson.Mark = models.MarkAttended
	lesson.Status = models.LessonStatusCompleted

	report, err := svc.SyncLessons()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Created)

	require.Len(t, events.events, 1)
	assert.Contains(t, events.events[0].Summary, "✔️")
	assert.Contains(t, events.events[0].Description, "Отметка: Посещение")
}

func TestSyncLessonsDeletesOrphans(t *testing.T) {
	events := &fakeEvents{}
	stale := testLesson(99, "")
	svc := newService(t,
		&fakeSubRepo{subs: []*models.Subscription{testSub}},
		&fakeLessonRepo{lessons: []*models.Lesson{stale}},
		&fakeForecastRepo{}, events)

	_, err := svc.SyncLessons()
	require.NoError(t, err)
	require.Len(t, events.events, 1)

	// Занятие пропало из журнала - событие должно уйти вслед за ним.
	svc.lessonRepo = &fakeLessonRepo{}
	report, err := svc.SyncLessons()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Empty(t, events.events)
}

func TestSyncLessonsCollapsesDuplicatesKeepingOldest(t *testing.T) {
	events := &fakeEvents{}
	lesson := testLesson(1, "")
	svc := newService(t,
		&fakeSubRepo{subs: []*models.Subscription{testSub}},
		&fakeLessonRepo{lessons: []*models.Lesson{lesson}},
		&fakeForecastRepo{}, events)

	// Два события одного занятия: созданное раньше должно выжить.
	want := lessonEvent(lesson, "Шахматы", time.UTC, "UTC")
	older, err := events.Insert(want)
	require.NoError(t, err)
	_, err = events.Insert(want)
	require.NoError(t, err)
	events.inserts = 0

	report, err := svc.SyncLessons()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 0, report.Created)

	require.Len(t, events.events, 1)
	assert.Equal(t, older.Id, events.events[0].Id)
}

func TestSyncForecastConverges(t *testing.T) {
	events := &fakeEvents{}
	fc := &fakeForecastRepo{rows: []*models.ForecastPayment{{
		Circle: "Шахматы", Child: "Маша", DueDate: date(2025, 9, 12),
		Amount: 4000, Status: models.PaymentStatusPlanned,
	}}}
	svc := newService(t, &fakeSubRepo{}, &fakeLessonRepo{}, fc, events)

	first, err := svc.SyncForecast()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, "📅 Оплата - Маша - Шахматы", ev.Summary)
	assert.Contains(t, ev.Description, "ID прогноза: Шахматы|Маша|12.09.2025|4000")
	// Событие на весь день.
	assert.Equal(t, "2025-09-12", ev.Start.Date)
	assert.Equal(t, "2025-09-13", ev.End.Date)

	second, err := svc.SyncForecast()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Unchanged)
	assert.Equal(t, 0, second.Created)
}

func TestSyncIgnoresForeignEvents(t *testing.T) {
	events := &fakeEvents{}
	_, err := events.Insert(&calendar.Event{Summary: "Отпуск", Description: "личное"})
	require.NoError(t, err)
	svc := newService(t, &fakeSubRepo{}, &fakeLessonRepo{}, &fakeForecastRepo{}, events)

	report, err := svc.SyncLessons()
	require.NoError(t, err)
	assert.Equal(t, 0, report.Deleted)
	assert.Len(t, events.events, 1)
}

func TestDeleteSubscriptionEvents(t *testing.T) {
	events := &fakeEvents{}
	lesson := testLesson(1, "")
	svc := newService(t,
		&fakeSubRepo{subs: []*models.Subscription{testSub}},
		&fakeLessonRepo{lessons: []*models.Lesson{lesson}},
		&fakeForecastRepo{}, events)

	_, err := svc.SyncLessons()
	require.NoError(t, err)
	_, err = events.Insert(&calendar.Event{Summary: "Отпуск", Description: "личное"})
	require.NoError(t, err)

	deleted, err := svc.DeleteSubscriptionEvents("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	require.Len(t, events.events, 1)
	assert.Equal(t, "Отпуск", events.events[0].Summary)
}

func TestDescriptionField(t *testing.T) {
	desc := "ID занятия: 7\nID абонемента: s1\nОтметка: "
	assert.Equal(t, "7", descriptionField(desc, fieldLessonID))
	assert.Equal(t, "s1", descriptionField(desc, fieldSubID))
	assert.Equal(t, "", descriptionField(desc, "Отметка"))
	assert.Equal(t, "", descriptionField(desc, fieldForecastID))
}
