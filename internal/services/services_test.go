package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/auth"
	"grameen_connect/internal/models"
	"grameen_connect/internal/testutil"
	"grameen_connect/internal/uploads"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []models.RequestEvent
}

func (r *recordedEvents) Publish(event interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := event.(models.RequestEvent); ok {
		r.events = append(r.events, e)
	}
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour, nil)
}

func newRequestService(t *testing.T, db *gorm.DB, policy TransitionPolicy) (*RequestService, *recordedEvents, string) {
	dir := t.TempDir()
	events := &recordedEvents{}
	return NewRequestService(db, uploads.NewStore(dir, 5<<20), policy, events), events, dir
}

func assertKind(t *testing.T, err error, kind apperr.Kind, messageID string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.From(err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, messageID, appErr.MessageID)
}

func ptr[T any](v T) *T { return &v }

func formFile(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func pngBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func countFiles(t *testing.T, dir string) int {
	n := 0
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return nil
	})
	return n
}

// ---- auth ----

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	tokens := newTokens()
	svc := NewAuthService(db, tokens)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		FullName: "Kamal Hossain",
		Email:    "  Kamal@Example.com ",
		Password: "pass1234",
		Role:     "help_seeker",
		Phone:    ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "kamal@example.com", res.User.Email)
	assert.Nil(t, res.User.Phone)
	assert.NotEqual(t, "pass1234", res.User.Password)

	claims, err := tokens.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	login, err := svc.Login(ctx, LoginInput{Email: "KAMAL@example.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	profile, err := svc.Profile(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kamal Hossain", profile.FullName)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAuthService(db, newTokens())
	in := RegisterInput{FullName: "A", Email: "a@example.com", Password: "pw", Role: "volunteer"}

	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), in)
	assertKind(t, err, apperr.KindValidation, apperr.MsgUserExists)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	svc := NewAuthService(testutil.NewDB(t), newTokens())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: strings.Repeat("a", 73), Role: "volunteer"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidInput)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "max", appErr.Details["password"])

	// 24 three-byte runes: 72 bytes, accepted.
	_, err = svc.Register(ctx, RegisterInput{FullName: "B", Email: "b@example.com", Password: strings.Repeat("অ", 24), Role: "volunteer"})
	require.NoError(t, err)

	// 25 runes is 75 bytes.
	_, err = svc.Register(ctx, RegisterInput{FullName: "C", Email: "c@example.com", Password: strings.Repeat("অ", 25), Role: "volunteer"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidInput)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(testutil.NewDB(t), newTokens())

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "pw", Role: "volunteer"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidInput)
	assert.Equal(t, "required", apperr.From(err).Details["fullName"])

	_, err = svc.Register(context.Background(), RegisterInput{FullName: "A", Email: "a@example.com", Password: "pw", Role: "superuser"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidInput)
	assert.Equal(t, "oneof", apperr.From(err).Details["role"])

	_, err = svc.Register(context.Background(), RegisterInput{FullName: "A", Email: "not-an-email", Password: "pw", Role: "admin"})
	assert.Equal(t, "email", apperr.From(err).Details["email"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAuthService(db, newTokens())
	_, err := svc.Register(context.Background(), RegisterInput{FullName: "A", Email: "a@example.com", Password: "right", Role: "admin"})
	require.NoError(t, err)

	_, unknown := svc.Login(context.Background(), LoginInput{Email: "b@example.com", Password: "right"})
	_, wrong := svc.Login(context.Background(), LoginInput{Email: "a@example.com", Password: "wrong"})
	assertKind(t, unknown, apperr.KindAuth, apperr.MsgInvalidCredentials)
	assertKind(t, wrong, apperr.KindAuth, apperr.MsgInvalidCredentials)
}

func TestProfileMissingUser(t *testing.T) {
	svc := NewAuthService(testutil.NewDB(t), newTokens())
	_, err := svc.Profile(context.Background(), 999)
	assertKind(t, err, apperr.KindNotFound, apperr.MsgUserNotFound)
}

// ---- requests ----

func TestCreateRequestIsPendingAndOwned(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	svc, events, _ := newRequestService(t, db, nil)

	req, err := svc.Create(context.Background(), seeker.ID, CreateRequestInput{
		Name: "Kamal", Category: "job", Description: "Need form help", Contact: ptr(" "),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	require.NotNil(t, req.UserID)
	assert.Equal(t, seeker.ID, *req.UserID)
	assert.Nil(t, req.Contact)
	assert.Nil(t, req.VolunteerID)
	assert.Equal(t, []string{models.EventRequestCreated}, events.types())

	view, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	require.NotNil(t, view.RequesterEmail)
	assert.Equal(t, "kamal@example.com", *view.RequesterEmail)
}

func TestCreateRequestValidation(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	svc, _, _ := newRequestService(t, db, nil)

	_, err := svc.Create(context.Background(), seeker.ID, CreateRequestInput{Name: "Kamal", Category: "job"}, nil)
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidInput)

	var n int64
	db.Model(&models.ServiceRequest{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateRequestRejectsBadDocumentWithoutWriting(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	svc, _, dir := newRequestService(t, db, nil)

	doc := formFile(t, "document", "cv.pdf", []byte("%PDF-1.7 not an image"))
	_, err := svc.Create(context.Background(), seeker.ID, CreateRequestInput{
		Name: "Kamal", Category: "job", Description: "Need form help",
	}, doc)
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidFileType)

	var n int64
	db.Model(&models.ServiceRequest{}).Count(&n)
	assert.Zero(t, n)
	assert.Zero(t, countFiles(t, dir))
}

func TestCreateRequestStoresDocument(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	svc, _, dir := newRequestService(t, db, nil)

	req, err := svc.Create(context.Background(), seeker.ID, CreateRequestInput{
		Name: "Kamal", Category: "banking", Description: "Open an account",
	}, formFile(t, "document", "nid.png", pngBytes(t)))
	require.NoError(t, err)
	require.NotNil(t, req.DocumentPath)
	assert.FileExists(t, filepath.FromSlash(*req.DocumentPath))
	assert.Equal(t, 1, countFiles(t, dir))
}

func TestCreateRequestForDeletedOwnerRemovesUpload(t *testing.T) {
	db := testutil.NewDB(t)
	svc, _, dir := newRequestService(t, db, nil)

	_, err := svc.Create(context.Background(), 4242, CreateRequestInput{
		Name: "Ghost", Category: "job", Description: "Stale token",
	}, formFile(t, "document", "nid.png", pngBytes(t)))
	assertKind(t, err, apperr.KindValidation, apperr.MsgOwnerMissing)
	assert.Zero(t, countFiles(t, dir))
}

func TestListRequests(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	svc, _, _ := newRequestService(t, db, nil)
	ctx := context.Background()

	var ids []uint
	for _, cat := range []string{"job", "banking", "health"} {
		r, err := svc.Create(ctx, seeker.ID, CreateRequestInput{Name: "Kamal", Category: cat, Description: "help"}, nil)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := svc.UpdateStatus(ctx, ids[0], UpdateStatusInput{Status: "completed"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "", DefaultListLimit)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")
	assert.Equal(t, "Kamal", *all[0].RequesterName)

	pending, err := svc.List(ctx, models.StatusPending, DefaultListLimit)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := svc.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = svc.List(ctx, models.RequestStatus("archived"), 10)
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidStatus)
}

func TestParseLimitAndStatus(t *testing.T) {
	n, err := ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, n)

	n, err = ParseLimit("5000")
	require.NoError(t, err)
	assert.Equal(t, MaxListLimit, n)

	for _, bad := range []string{"0", "-3", "ten"} {
		_, err := ParseLimit(bad)
		assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidLimit)
	}

	s, err := ParseStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, s)
	_, err = ParseStatus("done")
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidStatus)
}

func TestForUserByRole(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	other := testutil.CreateUser(t, db, "Rina", "rina@example.com", models.RoleHelpSeeker)
	vol := testutil.CreateUser(t, db, "Volunteer Vai", "vol@example.com", models.RoleVolunteer)
	svc, _, _ := newRequestService(t, db, nil)
	ctx := context.Background()

	mine, err := svc.Create(ctx, seeker.ID, CreateRequestInput{Name: "Kamal", Category: "job", Description: "a"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other.ID, CreateRequestInput{Name: "Rina", Category: "job", Description: "b"}, nil)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, mine.ID, UpdateStatusInput{Status: "in_progress", VolunteerID: &vol.ID})
	require.NoError(t, err)

	owned, err := svc.ForUser(ctx, seeker.ID, models.RoleHelpSeeker)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Volunteer Vai", *owned[0].VolunteerName)

	assigned, err := svc.ForUser(ctx, vol.ID, models.RoleVolunteer)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, mine.ID, assigned[0].ID)
	assert.Equal(t, "kamal@example.com", *assigned[0].RequesterEmail)

	asAdmin, err := svc.ForUser(ctx, other.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, asAdmin, 1, "non-volunteers see the requests they own")
}

func TestUpdateStatus(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
	svc, events, _ := newRequestService(t, db, nil)
	ctx := context.Background()

	req, err := svc.Create(ctx, seeker.ID, CreateRequestInput{Name: "Kamal", Category: "job", Description: "a"}, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "archived"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidStatus)

	_, err = svc.UpdateStatus(ctx, 9999, UpdateStatusInput{Status: "completed"})
	assertKind(t, err, apperr.KindNotFound, apperr.MsgRequestNotFound)

	_, err = svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "in_progress", VolunteerID: &admin.ID})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidVolunteer)

	updated, err := svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	// Free transitions allow reopening.
	reopened, err := svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "pending", VolunteerID: ptr[uint](0)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reopened.Status)
	assert.Nil(t, reopened.VolunteerID)

	assert.Equal(t, []string{models.EventRequestCreated, models.EventRequestUpdated, models.EventRequestUpdated}, events.types())
}

func TestStrictTransitions(t *testing.T) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	svc, _, _ := newRequestService(t, db, PolicyFor(true))
	ctx := context.Background()

	req, err := svc.Create(ctx, seeker.ID, CreateRequestInput{Name: "Kamal", Category: "job", Description: "a"}, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "completed"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgTransitionForbidden)

	_, err = svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "in_progress"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "completed"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, req.ID, UpdateStatusInput{Status: "in_progress"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgTransitionForbidden)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, FreeTransitions{}.Allow(models.StatusCompleted, models.StatusPending))
	assert.True(t, StrictTransitions.Allow(models.StatusCancelled, models.StatusPending))
	assert.True(t, StrictTransitions.Allow(models.StatusInProgress, models.StatusInProgress))
	assert.False(t, StrictTransitions.Allow(models.StatusCompleted, models.StatusCancelled))
	assert.False(t, StrictTransitions.Allow(models.StatusPending, models.StatusCompleted))
}

// ---- messages ----

func TestMessages(t *testing.T) {
	svc := NewMessageService(testutil.NewDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, MessageInput{Name: "Rina", Email: "bad", Subject: "Hi", Message: "Hello"})
	assertKind(t, err, apperr.KindValidation, apperr.MsgInvalidInput)

	first, err := svc.Create(ctx, MessageInput{Name: "Rina", Email: "rina@example.com", Subject: "Hi", Message: "Hello"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, MessageInput{Name: "Rina", Email: "rina@example.com", Subject: "Again", Message: "Hello?"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "Hello", list[1].Body)
}

// ---- profile ----

func TestUpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "Kamal", "kamal@example.com", models.RoleHelpSeeker)
	require.NoError(t, db.Model(&u).Update("phone", "0171").Error)
	dir := t.TempDir()
	svc := NewUserService(db, uploads.NewStore(dir, 5<<20))
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{FullName: ptr("  "), Phone: ptr(""), Bio: ptr("Farmer")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Kamal", updated.FullName)
	assert.Nil(t, updated.Phone)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "Farmer", *updated.Bio)

	updated, err = svc.UpdateProfile(ctx, u.ID, ProfileUpdate{FullName: ptr("Kamal Uddin")}, formFile(t, "avatar", "me.png", pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "Kamal Uddin", updated.FullName)
	require.NotNil(t, updated.Avatar)
	assert.Contains(t, *updated.Avatar, "/avatars/")
	assert.Equal(t, "Farmer", *updated.Bio)

	_, err = svc.UpdateProfile(ctx, 999, ProfileUpdate{}, nil)
	assertKind(t, err, apperr.KindNotFound, apperr.MsgUserNotFound)
}

// ---- testimonials ----

func TestApprovedTestimonials(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&[]models.Testimonial{
		{Quote: "Helped me find work", Author: "Rahim", Role: "Farmer", IsApproved: true},
		{Quote: "Pending review", Author: "Karim", Role: "Student"},
	}).Error)

	list, err := NewTestimonialService(db).Approved(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rahim", list[0].Author)
}
