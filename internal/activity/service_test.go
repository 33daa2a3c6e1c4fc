package activity

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/auth"
)

func TestActivity(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Activity Module Suite")
}

type mockActivityRepository struct {
	activities map[int64]*Activity
	nextID     int64
}

func newMockActivityRepository() *mockActivityRepository {
	return &mockActivityRepository{
		activities: make(map[int64]*Activity),
		nextID:     1,
	}
}

func (m *mockActivityRepository) Create(a *Activity) error {
	a.ID = m.nextID
	m.nextID++
	m.activities[a.ID] = a
	return nil
}

func (m *mockActivityRepository) GetByID(id int64) (*Activity, error) {
	if a, ok := m.activities[id]; ok {
		return a, nil
	}
	return nil, errors.New("not found")
}

func (m *mockActivityRepository) GetAll(limit, offset int) ([]*Activity, error) {
	out := make([]*Activity, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockActivityRepository) GetByDepartment(department string, limit, offset int) ([]*Activity, error) {
	var out []*Activity
	for _, a := range m.activities {
		if a.Department != nil && *a.Department == department {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockActivityRepository) GetByOwner(ownerID int64, limit, offset int) ([]*Activity, error) {
	var out []*Activity
	for _, a := range m.activities {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockActivityRepository) Update(a *Activity) error {
	if _, ok := m.activities[a.ID]; !ok {
		return errors.New("not found")
	}
	m.activities[a.ID] = a
	return nil
}

func (m *mockActivityRepository) Delete(id int64) error {
	if _, ok := m.activities[id]; !ok {
		return errors.New("not found")
	}
	delete(m.activities, id)
	return nil
}

// mockDirectory maps user ids to their current department.
type mockDirectory struct {
	departments map[int64]*string
}

func (m *mockDirectory) GetDepartment(userID int64) (*string, error) {
	if d, ok := m.departments[userID]; ok {
		return d, nil
	}
	return nil, errors.New("user not found")
}

var _ = ginkgo.Describe("ActivityService", func() {
	var (
		service   *Service
		mockRepo  *mockActivityRepository
		directory *mockDirectory

		admin        *auth.Principal
		salesManager *auth.Principal
		mktManager   *auth.Principal
		salesRep     *auth.Principal
		otherRep     *auth.Principal
	)

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sales := "Sales"
	marketing := "Marketing"

	ginkgo.BeforeEach(func() {
		mockRepo = newMockActivityRepository()
		directory = &mockDirectory{
			departments: map[int64]*string{
				1: nil,        // admin, no department
				2: &sales,     // sales manager
				3: &marketing, // marketing manager
				4: &sales,     // sales rep
				5: &sales,     // second sales rep
			},
		}
		service = NewService(mockRepo, directory, testLogger)

		admin = &auth.Principal{ID: 1, Role: auth.RoleAdmin}
		salesManager = &auth.Principal{ID: 2, Role: auth.RoleManager}
		mktManager = &auth.Principal{ID: 3, Role: auth.RoleManager}
		salesRep = &auth.Principal{ID: 4, Role: auth.RoleUser}
		otherRep = &auth.Principal{ID: 5, Role: auth.RoleUser}
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should stamp the requester as owner and snapshot their department", func() {
			created, err := service.Create(salesRep, CreateActivityDTO{Title: "Call prospect"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(created.OwnerID).To(gomega.Equal(int64(4)))
			gomega.Expect(created.Department).ToNot(gomega.BeNil())
			gomega.Expect(*created.Department).To(gomega.Equal("Sales"))
		})

		ginkgo.It("should record a nil department for an owner without one", func() {
			created, err := service.Create(admin, CreateActivityDTO{Title: "Quarterly review"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(created.Department).To(gomega.BeNil())
		})

		ginkgo.It("should reject a missing title", func() {
			_, err := service.Create(salesRep, CreateActivityDTO{})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Get", func() {
		var salesActivity *Activity

		ginkgo.BeforeEach(func() {
			var err error
			salesActivity, err = service.Create(salesRep, CreateActivityDTO{Title: "Sales demo"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should let the owner read their own record", func() {
			got, err := service.Get(salesRep, salesActivity.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.ID).To(gomega.Equal(salesActivity.ID))
		})

		ginkgo.It("should let an administrator read any record", func() {
			got, err := service.Get(admin, salesActivity.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.ID).To(gomega.Equal(salesActivity.ID))
		})

		ginkgo.It("should let a manager read a record from their department", func() {
			got, err := service.Get(salesManager, salesActivity.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.ID).To(gomega.Equal(salesActivity.ID))
		})

		ginkgo.It("should hide a record from a manager of another department", func() {
			_, err := service.Get(mktManager, salesActivity.ID)

			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should hide a record from a non-owner in the same department", func() {
			_, err := service.Get(otherRep, salesActivity.ID)

			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should return not found before any scope check", func() {
			_, err := service.Get(otherRep, 9999)

			gomega.Expect(err).To(gomega.Equal(internal.ErrActivityNotFound))
		})

		ginkgo.It("should never match a departmental record against a manager without a department", func() {
			directory.departments[2] = nil

			_, err := service.Get(salesManager, salesActivity.ID)

			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should never match a record without a department against a manager", func() {
			adminActivity, err := service.Create(admin, CreateActivityDTO{Title: "No department"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Get(salesManager, adminActivity.ID)

			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.BeforeEach(func() {
			_, err := service.Create(salesRep, CreateActivityDTO{Title: "Sales demo"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = service.Create(otherRep, CreateActivityDTO{Title: "Sales follow-up"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = service.Create(mktManager, CreateActivityDTO{Title: "Campaign plan"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should return everything for an administrator", func() {
			activities, err := service.List(admin, 20, 0)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(activities).To(gomega.HaveLen(3))
		})

		ginkgo.It("should return only the department's records for a manager", func() {
			activities, err := service.List(salesManager, 20, 0)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(activities).To(gomega.HaveLen(2))
			for _, a := range activities {
				gomega.Expect(*a.Department).To(gomega.Equal("Sales"))
			}
		})

		ginkgo.It("should return an empty collection for a manager without a department", func() {
			directory.departments[2] = nil

			activities, err := service.List(salesManager, 20, 0)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(activities).To(gomega.BeEmpty())
		})

		ginkgo.It("should return only owned records for a regular user", func() {
			activities, err := service.List(salesRep, 20, 0)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(activities).To(gomega.HaveLen(1))
			gomega.Expect(activities[0].OwnerID).To(gomega.Equal(int64(4)))
		})
	})

	ginkgo.Describe("Update", func() {
		var salesActivity *Activity

		ginkgo.BeforeEach(func() {
			var err error
			salesActivity, err = service.Create(salesRep, CreateActivityDTO{Title: "Sales demo"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should apply the same scope rules as reads", func() {
			_, err := service.Update(mktManager, salesActivity.ID, UpdateActivityDTO{Title: "Hijacked"})

			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should let the owner update", func() {
			updated, err := service.Update(salesRep, salesActivity.ID, UpdateActivityDTO{Title: "Rescheduled demo"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Title).To(gomega.Equal("Rescheduled demo"))
		})
	})

	ginkgo.Describe("Delete", func() {
		var salesActivity *Activity

		ginkgo.BeforeEach(func() {
			var err error
			salesActivity, err = service.Create(salesRep, CreateActivityDTO{Title: "Sales demo"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should reject an out-of-scope delete", func() {
			err := service.Delete(otherRep, salesActivity.ID)

			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
			gomega.Expect(mockRepo.activities).To(gomega.HaveKey(salesActivity.ID))
		})

		ginkgo.It("should let an administrator delete any record", func() {
			err := service.Delete(admin, salesActivity.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.activities).ToNot(gomega.HaveKey(salesActivity.ID))
		})

		ginkgo.It("should return not found for a missing record", func() {
			err := service.Delete(admin, 9999)

			gomega.Expect(err).To(gomega.Equal(internal.ErrActivityNotFound))
		})
	})
})
