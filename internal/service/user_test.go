package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/model"
)

type mockAddressRepo struct {
	addresses map[uuid.UUID]*model.Address
}

func newMockAddressRepo() *mockAddressRepo {
	return &mockAddressRepo{addresses: make(map[uuid.UUID]*model.Address)}
}

func (m *mockAddressRepo) Create(_ context.Context, addr *model.Address) error {
	addr.ID = uuid.New()
	m.addresses[addr.ID] = addr
	return nil
}

func (m *mockAddressRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Address, error) {
	return m.addresses[id], nil
}

func (m *mockAddressRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Address, error) {
	var out []model.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAddressRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.addresses, id)
	return nil
}

func TestUserService_Update_PartialFields(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, newMockAddressRepo())

	user := &model.User{Email: "old@example.com", FirstName: "John", LastName: "Doe"}
	require.NoError(t, repo.Create(context.Background(), user))

	first := "Jane"
	resp, err := svc.Update(context.Background(), user.ID, user.ID, dto.UpdateUserRequest{
		FirstName: &first,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", resp.FirstName)
	assert.Equal(t, "Doe", resp.LastName)
	assert.Equal(t, "old@example.com", resp.Email)
}

func TestUserService_Update_NotOwner(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, newMockAddressRepo())

	user := &model.User{Email: "target@example.com", FirstName: "John"}
	require.NoError(t, repo.Create(context.Background(), user))

	first := "Mallory"
	_, err := svc.Update(context.Background(), uuid.New(), user.ID, dto.UpdateUserRequest{
		FirstName: &first,
	})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, "John", repo.byID[user.ID].FirstName)
}

func TestUserService_Update_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, newMockAddressRepo())

	taken := &model.User{Email: "taken@example.com"}
	require.NoError(t, repo.Create(context.Background(), taken))
	user := &model.User{Email: "me@example.com"}
	require.NoError(t, repo.Create(context.Background(), user))

	email := "taken@example.com"
	_, err := svc.Update(context.Background(), user.ID, user.ID, dto.UpdateUserRequest{Email: &email})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserService_Delete_NotOwner(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, newMockAddressRepo())

	user := &model.User{Email: "target@example.com"}
	require.NoError(t, repo.Create(context.Background(), user))

	err := svc.Delete(context.Background(), uuid.New(), user.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Contains(t, repo.byID, user.ID)
}

func TestUserService_DeleteAddress_NotOwner(t *testing.T) {
	userRepo := newMockUserRepo()
	addrRepo := newMockAddressRepo()
	svc := NewUserService(userRepo, addrRepo)

	addr := &model.Address{UserID: uuid.New(), StreetAddress: "1 Main St"}
	require.NoError(t, addrRepo.Create(context.Background(), addr))

	err := svc.DeleteAddress(context.Background(), uuid.New(), addr.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Contains(t, addrRepo.addresses, addr.ID)
}

func TestUserService_DeleteAddress_NotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), newMockAddressRepo())
	err := svc.DeleteAddress(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrAddressNotFound)
}
