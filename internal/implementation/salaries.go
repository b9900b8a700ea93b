package implementation

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// createEmployeeSalaries is phase 4: one salary record per employee graded
// in phase 1, resolved against the salary scale snapshot carried on the
// task. Rows fan out across a bounded worker pool; a missing scale entry
// or a failed insert is a row error, never fatal.
func (e *Executor) createEmployeeSalaries(r *run) error {
	companyID := r.task.CompanyID
	taskID := r.task.ID

	var employees []model.Employee
	if err := e.db.WithContext(r.ctx).
		Where("company_id = ? AND implemented_by_task_id = ?", companyID, taskID).
		Find(&employees).Error; err != nil {
		return fmt.Errorf("phase 4: failed to load graded employees: %w", err)
	}

	r.beginPhase(4, len(employees), "creating employee salaries")

	scale := buildScaleIndex(r.task.Workbook)

	var created atomic.Int64
	jobs := make(chan model.Employee)
	var wg sync.WaitGroup

	for i := 0; i < e.salaryWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for employee := range jobs {
				basic, ok := scale[scaleKey(employee.Band, employee.Level, employee.Notch)]
				if !ok {
					r.rowError(model.RowIssue{
						Staff: employee.StaffNumber,
						Message: fmt.Sprintf("no salary scale entry for band %q level %q notch %q",
							employee.Band, employee.Level, employee.Notch),
					})
					r.unitDone()
					continue
				}

				salary := model.EmployeeSalary{
					CompanyID:    companyID,
					EmployeeID:   employee.ID,
					BasicSalary:  basic,
					Currency:     "GHS",
					SourceTaskID: &taskID,
				}
				if err := e.db.WithContext(r.ctx).Create(&salary).Error; err != nil {
					r.rowError(model.RowIssue{
						Staff:   employee.StaffNumber,
						Message: fmt.Sprintf("failed to create salary record: %v", err),
					})
				} else {
					created.Add(1)
				}
				r.unitDone()
			}
		}()
	}

	for _, employee := range employees {
		jobs <- employee
	}
	close(jobs)
	wg.Wait()

	r.result.SalariesCreated = int(created.Load())
	return nil
}
