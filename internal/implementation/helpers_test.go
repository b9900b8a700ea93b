package implementation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

const testCompanyID = "company-001"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// sqlite allows one writer; a single pooled connection keeps the
	// phase-4 workers from tripping over table locks.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Employee{},
		&model.PayComponent{},
		&model.TaxBracket{},
		&model.SSNITRate{},
		&model.OvertimeConfig{},
		&model.EmployeeSalary{},
		&model.PayrollTransaction{},
		&model.ImplementationTask{},
	))
	return db
}

// fixtureWorkbook builds a two-band workbook with three staff rows:
// EMP-001 (Band A, PF member, union member), EMP-002 (Band B, pays rent,
// missing NIA) and EMP-003 (Band A, minimal fields).
func fixtureWorkbook() *ingest.Workbook {
	return &ingest.Workbook{
		Allowances: []ingest.AllowanceRow{
			{Band: "Band A", AllowanceType: "Responsibility", MonthlyAmount: 300},
			{Band: "Band A", AllowanceType: "Fuel", MonthlyAmount: 150},
			{Band: "Band B", AllowanceType: "Responsibility", MonthlyAmount: 200},
		},
		SalaryScale: []ingest.SalaryScaleRow{
			{Band: "Band A", Level: "1", Notch: "1", MonthlyAmount: 4000},
			{Band: "Band A", Level: "1", Notch: "2", MonthlyAmount: 4200},
			{Band: "Band B", Level: "2", Notch: "1", MonthlyAmount: 3000},
		},
		Sheets: []ingest.StaffSheet{
			{
				Name: "Senior Staff",
				Rows: []ingest.StaffRow{
					{
						Sheet: "Senior Staff", Row: 2,
						StaffNumber: "EMP-001", FullName: "Ama Mensah",
						Band: "Band A", Level: "1", Notch: "1",
						NIANumber: "GHA-000000001-1",
						BankName:  "GCB Bank", BankBranch: "Accra Main", AccountNumber: "1010001",
						ProvidentFund: true, UnionName: "Senior Staff Association",
					},
					{
						Sheet: "Senior Staff", Row: 3,
						StaffNumber: "EMP-003", FullName: "Kofi Owusu",
						Band: "Band A", Level: "1", Notch: "2",
						NIANumber: "GHA-000000003-3",
						BankName:  "Ecobank", BankBranch: "Tema", AccountNumber: "1010003",
					},
				},
			},
			{
				Name: "Junior Staff",
				Rows: []ingest.StaffRow{
					{
						Sheet: "Junior Staff", Row: 2,
						StaffNumber: "EMP-002", FullName: "Yaw Boateng",
						Band: "Band B", Level: "2", Notch: "1",
						BankName: "GCB Bank", BankBranch: "Kumasi", AccountNumber: "2020002",
						MonthlyRent: 250,
					},
				},
			},
		},
	}
}

// seedEmployees creates the pre-existing employee records the fixture
// workbook refers to.
func seedEmployees(t *testing.T, db *gorm.DB, staffNumbers ...string) {
	t.Helper()
	for _, staffNumber := range staffNumbers {
		employee := model.Employee{
			CompanyID:   testCompanyID,
			StaffNumber: staffNumber,
			FullName:    "Employee " + staffNumber,
		}
		require.NoError(t, db.Create(&employee).Error)
	}
}

// analyzedTask creates and persists an ANALYZED task over the fixture
// workbook.
func analyzedTask(t *testing.T, db *gorm.DB) *model.ImplementationTask {
	t.Helper()
	wb := fixtureWorkbook()
	task := &model.ImplementationTask{
		CompanyID: testCompanyID,
		Status:    model.TaskStatusAnalyzed,
		Analysis:  NewAnalyzer().Analyze(wb),
		Workbook:  wb,
	}
	require.NoError(t, NewTaskStore(db).Create(context.Background(), task))
	return task
}
