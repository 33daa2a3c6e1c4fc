package postgres

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/role"
	"github.com/backoffice-crm/backoffice-crm/internal/user"
)

func TestRoleRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RoleRepository Suite")
}

var _ = Describe("RoleRepository", func() {
	var (
		db   *gorm.DB
		repo role.Repository
	)

	createPermission := func(action, subject string) *role.Permission {
		p := &role.Permission{Action: action, Subject: subject}
		Expect(repo.CreatePermission(p)).To(Succeed())
		return p
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&role.Permission{}, &role.Role{}, &user.User{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewRoleRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("CreateRole and GetRoleByID", func() {
		It("should persist the role with its permission set", func() {
			read := createPermission("read", "activity")
			create := createPermission("create", "activity")

			rl := &role.Role{Name: "AGENT", Permissions: []role.Permission{*read, *create}}
			Expect(repo.CreateRole(rl)).To(Succeed())

			got, err := repo.GetRoleByID(rl.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("AGENT"))
			Expect(got.Permissions).To(HaveLen(2))
			Expect(got.HasPermission("read", "activity")).To(BeTrue())
			Expect(got.HasPermission("delete", "activity")).To(BeFalse())
		})

		It("should return not found for an unknown id", func() {
			_, err := repo.GetRoleByID(9999)
			Expect(err).To(Equal(internal.ErrRoleNotFound))
		})
	})

	Describe("UpdateRole", func() {
		It("should replace the permission set atomically", func() {
			read := createPermission("read", "activity")
			report := createPermission("read", "report")

			rl := &role.Role{Name: "AGENT", Permissions: []role.Permission{*read}}
			Expect(repo.CreateRole(rl)).To(Succeed())

			rl.Name = "SENIOR_AGENT"
			Expect(repo.UpdateRole(rl, []int64{report.ID})).To(Succeed())

			got, err := repo.GetRoleByID(rl.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("SENIOR_AGENT"))
			Expect(got.PermissionKeys()).To(ConsistOf("read:report"))
		})
	})

	Describe("DeleteRole", func() {
		It("should delete an unreferenced role and its grants", func() {
			read := createPermission("read", "activity")
			rl := &role.Role{Name: "AGENT", Permissions: []role.Permission{*read}}
			Expect(repo.CreateRole(rl)).To(Succeed())

			Expect(repo.DeleteRole(rl.ID)).To(Succeed())

			_, err := repo.GetRoleByID(rl.ID)
			Expect(err).To(Equal(internal.ErrRoleNotFound))

			var grants int64
			Expect(db.Raw("SELECT COUNT(*) FROM role_permissions WHERE role_id = ?", rl.ID).Scan(&grants).Error).To(Succeed())
			Expect(grants).To(BeZero())
		})

		It("should refuse to delete a role still held by a user", func() {
			rl := &role.Role{Name: "AGENT"}
			Expect(repo.CreateRole(rl)).To(Succeed())

			holder := &user.User{
				EmployeeID: "EMP-1", Email: "holder@example.com", PasswordHash: "x",
				FirstName: "Holly", RoleID: rl.ID, Status: user.StatusActive,
			}
			Expect(db.Omit("Role").Create(holder).Error).To(Succeed())

			err := repo.DeleteRole(rl.ID)
			Expect(err).To(Equal(internal.ErrRoleInUse))

			_, err = repo.GetRoleByID(rl.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should allow deletion once the last holder is reassigned", func() {
			agent := &role.Role{Name: "AGENT"}
			basic := &role.Role{Name: "BASIC"}
			Expect(repo.CreateRole(agent)).To(Succeed())
			Expect(repo.CreateRole(basic)).To(Succeed())

			holder := &user.User{
				EmployeeID: "EMP-1", Email: "holder@example.com", PasswordHash: "x",
				FirstName: "Holly", RoleID: agent.ID, Status: user.StatusActive,
			}
			Expect(db.Omit("Role").Create(holder).Error).To(Succeed())

			Expect(repo.DeleteRole(agent.ID)).To(Equal(internal.ErrRoleInUse))

			Expect(db.Model(&user.User{}).Where("id = ?", holder.ID).
				Update("role_id", basic.ID).Error).To(Succeed())

			Expect(repo.DeleteRole(agent.ID)).To(Succeed())
		})

		It("should return not found for an unknown role", func() {
			err := repo.DeleteRole(9999)
			Expect(err).To(Equal(internal.ErrRoleNotFound))
		})
	})

	Describe("DeletePermission", func() {
		It("should delete an unreferenced permission", func() {
			p := createPermission("read", "report")

			Expect(repo.DeletePermission(p.ID)).To(Succeed())

			exists, err := repo.PermissionExists("read", "report")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("should refuse to delete a permission still granted to a role", func() {
			p := createPermission("read", "report")
			rl := &role.Role{Name: "ANALYST", Permissions: []role.Permission{*p}}
			Expect(repo.CreateRole(rl)).To(Succeed())

			err := repo.DeletePermission(p.ID)
			Expect(err).To(Equal(internal.ErrPermissionInUse))
		})

		It("should return not found for an unknown permission", func() {
			err := repo.DeletePermission(9999)
			Expect(err).To(Equal(internal.ErrPermissionNotFound))
		})
	})

	Describe("PermissionsByIDs", func() {
		It("should resolve only the known ids", func() {
			read := createPermission("read", "activity")

			found, err := repo.PermissionsByIDs([]int64{read.ID, 9999})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
		})

		It("should return an empty slice for no ids", func() {
			found, err := repo.PermissionsByIDs(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})
	})

	Describe("ListRoles", func() {
		It("should list roles sorted by name with permissions attached", func() {
			read := createPermission("read", "activity")
			Expect(repo.CreateRole(&role.Role{Name: "ZETA"})).To(Succeed())
			Expect(repo.CreateRole(&role.Role{Name: "ALPHA", Permissions: []role.Permission{*read}})).To(Succeed())

			roles, err := repo.ListRoles()
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(2))
			Expect(roles[0].Name).To(Equal("ALPHA"))
			Expect(roles[0].Permissions).To(HaveLen(1))
		})
	})
})
