package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/auth"
	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/donation"
	"github.com/bhos1242/seva-samarpan-sub001/internal/push"
	"github.com/bhos1242/seva-samarpan-sub001/internal/student"
)

var errUnexpected = errors.New("unexpected call")

type fakeAuth struct {
	signup func(auth.SignupInput) (*domain.User, error)
	login  func(email, password string) (*auth.Session, error)
	resend func(email string) error
	me     func(userID string) (*domain.User, error)
}

func (f *fakeAuth) Signup(_ context.Context, in auth.SignupInput) (*domain.User, error) {
	if f.signup == nil {
		return nil, errUnexpected
	}
	return f.signup(in)
}

func (f *fakeAuth) VerifyOTP(context.Context, string, string) (*auth.Session, error) {
	return nil, domain.ErrInvalidToken
}

func (f *fakeAuth) ResendOTP(_ context.Context, email string) error {
	if f.resend == nil {
		return errUnexpected
	}
	return f.resend(email)
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*auth.Session, error) {
	if f.login == nil {
		return nil, errUnexpected
	}
	return f.login(email, password)
}

func (f *fakeAuth) ForgotPassword(context.Context, string) error { return nil }

func (f *fakeAuth) ResetPassword(context.Context, string, string) error { return nil }

func (f *fakeAuth) Me(_ context.Context, userID string) (*domain.User, error) {
	if f.me == nil {
		return nil, errUnexpected
	}
	return f.me(userID)
}

type fakeDonations struct {
	verify func(donation.Verification) (*donation.Result, error)
	recent []domain.Donation
	stats  *domain.DonationStats
	limit  int
}

func (f *fakeDonations) VerifyAndRecord(_ context.Context, v donation.Verification) (*donation.Result, error) {
	if f.verify == nil {
		return nil, errUnexpected
	}
	return f.verify(v)
}

func (f *fakeDonations) ListRecent(_ context.Context, limit int) ([]domain.Donation, error) {
	f.limit = limit
	return f.recent, nil
}

func (f *fakeDonations) Stats(context.Context) (*domain.DonationStats, error) {
	if f.stats == nil {
		return nil, errUnexpected
	}
	return f.stats, nil
}

type fakeStudents struct {
	byID     map[string]domain.Student
	uploaded []byte
}

func (f *fakeStudents) List(context.Context) ([]domain.Student, error) {
	out := make([]domain.Student, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStudents) Get(_ context.Context, id string) (*domain.Student, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStudents) Create(_ context.Context, in student.CreateInput) (*domain.Student, error) {
	return &domain.Student{ID: "11111111-1111-4111-8111-111111111111", Name: in.Name, RequiredAmount: in.RequiredAmount}, nil
}

func (f *fakeStudents) UploadPhoto(_ context.Context, id string, data []byte) (*domain.Student, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.uploaded = data
	s.PhotoURL = "https://cdn.example/" + id + ".png"
	return &s, nil
}

func (f *fakeStudents) Donations(context.Context, string, int) ([]domain.Donation, error) {
	return nil, nil
}

type fakePush struct {
	subscribed []push.SubscribeInput
	err        error
}

func (f *fakePush) Subscribe(_ context.Context, in push.SubscribeInput) (*domain.PushSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subscribed = append(f.subscribed, in)
	return &domain.PushSubscription{ID: "sub-1", Endpoint: in.Endpoint}, nil
}

func (f *fakePush) Unsubscribe(context.Context, string) error { return f.err }

func (f *fakePush) Broadcast(context.Context, domain.PushPayload) (push.BroadcastResult, error) {
	if f.err != nil {
		return push.BroadcastResult{}, f.err
	}
	return push.BroadcastResult{Sent: 2, Expired: 1}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestApp() *App {
	return &App{
		Auth:          &fakeAuth{},
		Donations:     &fakeDonations{},
		Students:      &fakeStudents{byID: map[string]domain.Student{}},
		Push:          &fakePush{},
		Logger:        zerolog.Nop(),
		RazorpayKeyID: "rzp_test_key",
	}
}
