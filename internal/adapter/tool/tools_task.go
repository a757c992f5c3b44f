package tool

import (
	"context"

	"binna-crm/internal/usecase/crm"
)

// taskSpecs binds the task tools.
func taskSpecs(c *crm.Tasks) []FuncSpec {
	return []FuncSpec{
		{
			Name: "create_task",
			Doc: `Create a to-do task under a customer company.

Args:
- customer_id: the id of the customer the task belongs to
- name: short name of the task
- description: what needs to be done
- due_date: when the task is due, format YYYY-MM-DDTHH:MM:SS
- completed: whether the task is already done

Returns:
- dict: the created task`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
				{Name: "name", Type: TypeString},
				{Name: "description", Type: TypeString},
				{Name: "due_date", Type: TypeDateTime, Optional: true},
				{Name: "completed", Type: TypeBool, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				dueDate, err := args.OptTime("due_date")
				if err != nil {
					return nil, err
				}
				return c.Create(ctx, userID, args.Int64("customer_id"),
					args.String("name"), args.String("description"), dueDate, args.Bool("completed"))
			},
		},
		{
			Name: "get_all_tasks",
			Doc: `List tasks, optionally filtered by customer company.

Args:
- customer_id: only return tasks of this customer; omit for all tasks

Returns:
- list: the matching tasks`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.List(ctx, userID, args.Int64("customer_id"))
			},
		},
		{
			Name: "get_task_by_id",
			Doc: `Fetch a single task by its numeric id.

Args:
- task_id: the id of the task

Returns:
- dict: the task, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "task_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Get(ctx, userID, args.Int64("task_id"))
			},
		},
		{
			Name: "update_task",
			Doc: `Update one or more fields of a task. Only the provided fields change.

Args:
- task_id: the id of the task to update
- name: the new name
- description: the new description
- due_date: the new due date, format YYYY-MM-DDTHH:MM:SS
- completed: the new completion state

Returns:
- dict: the updated task, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "task_id", Type: TypeInt},
				{Name: "name", Type: TypeString, Optional: true},
				{Name: "description", Type: TypeString, Optional: true},
				{Name: "due_date", Type: TypeDateTime, Optional: true},
				{Name: "completed", Type: TypeBool, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				dueDate, err := args.OptTime("due_date")
				if err != nil {
					return nil, err
				}
				return c.Update(ctx, userID, args.Int64("task_id"), crm.TaskUpdate{
					Name:        args.OptString("name"),
					Description: args.OptString("description"),
					DueDate:     dueDate,
					Completed:   args.OptBool("completed"),
				})
			},
		},
		{
			Name: "delete_task",
			Doc: `Delete a task by id.

Args:
- task_id: the id of the task to delete

Returns:
- dict: the deleted task, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "task_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Delete(ctx, userID, args.Int64("task_id"))
			},
		},
	}
}
