package user

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/auth"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockRepository struct {
	users       map[int64]*User
	roleIDs     map[string]int64
	nextID      int64
	changeRole  error
	deleteErr   error
	deleteCalls int
}

func newMockRepository() *mockRepository {
	sales := "Sales"
	return &mockRepository{
		users: map[int64]*User{
			1: {ID: 1, EmployeeID: "EMP-0001", Email: "admin@example.com", FirstName: "Ada", RoleID: 1, Status: StatusActive},
			2: {ID: 2, EmployeeID: "EMP-0002", Email: "user@example.com", FirstName: "Uli", RoleID: 3, Department: &sales, Status: StatusActive},
		},
		roleIDs: map[string]int64{"ADMIN": 1, "MANAGER": 2, "USER": 3},
		nextID:  3,
	}
}

func (m *mockRepository) GetByID(id int64) (*User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *mockRepository) List(limit, offset int) ([]*User, error) {
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) Create(u *User) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockRepository) UpdateProfile(id int64, firstName, lastName string, department *string) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Department = department
	return nil
}

func (m *mockRepository) UpdateStatus(id int64, status string) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.Status = status
	return nil
}

func (m *mockRepository) EmailExists(email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) EmployeeIDExists(employeeID string) (bool, error) {
	for _, u := range m.users {
		if u.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) ChangeRole(userID, newRoleID, adminRoleID int64) error {
	if m.changeRole != nil {
		return m.changeRole
	}
	u, ok := m.users[userID]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.RoleID = newRoleID
	return nil
}

func (m *mockRepository) Delete(userID, adminRoleID int64) error {
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.users[userID]; !ok {
		return internal.ErrUserNotFound
	}
	delete(m.users, userID)
	return nil
}

func (m *mockRepository) RoleIDByName(name string) (int64, error) {
	if id, ok := m.roleIDs[name]; ok {
		return id, nil
	}
	return 0, errors.New("role not found")
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		service = NewService(mockRepo, bcrypt.MinCost, testLogger)
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should reject deleting your own account before touching the store", func() {
			actor := &auth.Principal{ID: 1, Role: "ADMIN"}

			err := service.Delete(actor, 1)

			gomega.Expect(err).To(gomega.Equal(internal.ErrSelfDelete))
			gomega.Expect(mockRepo.deleteCalls).To(gomega.Equal(0))
		})

		ginkgo.It("should delete another account", func() {
			actor := &auth.Principal{ID: 1, Role: "ADMIN"}

			err := service.Delete(actor, 2)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.users).ToNot(gomega.HaveKey(int64(2)))
		})

		ginkgo.It("should surface the last-administrator rejection unchanged", func() {
			mockRepo.deleteErr = internal.ErrLastAdmin
			actor := &auth.Principal{ID: 2, Role: "ADMIN"}

			err := service.Delete(actor, 1)

			gomega.Expect(err).To(gomega.Equal(internal.ErrLastAdmin))
		})

		ginkgo.It("should surface not found unchanged", func() {
			actor := &auth.Principal{ID: 1, Role: "ADMIN"}

			err := service.Delete(actor, 999)

			gomega.Expect(err).To(gomega.Equal(internal.ErrUserNotFound))
		})
	})

	ginkgo.Describe("ChangeRole", func() {
		ginkgo.It("should reassign the role", func() {
			updated, err := service.ChangeRole(2, ChangeRoleDTO{RoleID: 2})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.RoleID).To(gomega.Equal(int64(2)))
		})

		ginkgo.It("should surface the last-administrator rejection unchanged", func() {
			mockRepo.changeRole = internal.ErrLastAdmin

			_, err := service.ChangeRole(1, ChangeRoleDTO{RoleID: 3})

			gomega.Expect(err).To(gomega.Equal(internal.ErrLastAdmin))
		})

		ginkgo.It("should reject a missing role id", func() {
			_, err := service.ChangeRole(2, ChangeRoleDTO{})

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("role_id is required"))
		})
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should hash the password and activate the account", func() {
			created, err := service.Create(CreateUserDTO{
				EmployeeID: "EMP-0100",
				Email:      "new@example.com",
				Password:   "long-enough-password",
				FirstName:  "Nova",
				RoleID:     3,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(created.Status).To(gomega.Equal(StatusActive))
			gomega.Expect(created.PasswordHash).ToNot(gomega.Equal("long-enough-password"))
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("long-enough-password"))).To(gomega.Succeed())
		})

		ginkgo.It("should reject a duplicate email", func() {
			_, err := service.Create(CreateUserDTO{
				EmployeeID: "EMP-0100",
				Email:      "user@example.com",
				Password:   "long-enough-password",
				FirstName:  "Nova",
				RoleID:     3,
			})

			gomega.Expect(err).To(gomega.Equal(internal.ErrEmailTaken))
		})

		ginkgo.It("should reject a duplicate employee id", func() {
			_, err := service.Create(CreateUserDTO{
				EmployeeID: "EMP-0002",
				Email:      "new@example.com",
				Password:   "long-enough-password",
				FirstName:  "Nova",
				RoleID:     3,
			})

			gomega.Expect(err).To(gomega.HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(409))
		})
	})

	ginkgo.Describe("UpdateStatus", func() {
		ginkgo.It("should toggle an account inactive", func() {
			updated, err := service.UpdateStatus(2, UpdateStatusDTO{Status: StatusInactive})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.IsActiveUser()).To(gomega.BeFalse())
		})

		ginkgo.It("should reject an unknown status value", func() {
			_, err := service.UpdateStatus(2, UpdateStatusDTO{Status: "paused"})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("GetDepartment", func() {
		ginkgo.It("should return the stored department", func() {
			dept, err := service.GetDepartment(2)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(dept).ToNot(gomega.BeNil())
			gomega.Expect(*dept).To(gomega.Equal("Sales"))
		})

		ginkgo.It("should return nil for a user without one", func() {
			dept, err := service.GetDepartment(1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(dept).To(gomega.BeNil())
		})
	})
})
