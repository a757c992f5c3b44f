package tool

import (
	"context"

	"binna-crm/internal/usecase/crm"
)

// meetingSpecs binds the meeting tools.
func meetingSpecs(c *crm.Meetings) []FuncSpec {
	return []FuncSpec{
		{
			Name: "create_meet",
			Doc: `Schedule a meeting with a customer company.

Args:
- customer_id: the id of the customer the meeting is with
- name: short name of the meeting
- date: when the meeting happens, format YYYY-MM-DDTHH:MM:SS
- duration_minutes: how long the meeting lasts, in minutes
- status: one of pending, completed or cancelled; defaults to pending
- description: what the meeting is about
- address: where the meeting takes place
- opportunity_id: the id of a related sales opportunity
- contact_ids: comma separated ids of the contacts attending, e.g. "1,2,3"

Returns:
- dict: the created meeting with its linked contact ids`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
				{Name: "name", Type: TypeString},
				{Name: "date", Type: TypeDateTime},
				{Name: "duration_minutes", Type: TypeInt},
				{Name: "status", Type: TypeString, Optional: true},
				{Name: "description", Type: TypeString, Optional: true},
				{Name: "address", Type: TypeString, Optional: true},
				{Name: "opportunity_id", Type: TypeInt, Optional: true},
				{Name: "contact_ids", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				date, err := args.Time("date")
				if err != nil {
					return nil, err
				}
				contactIDs, err := ParseIDList(args.String("contact_ids"))
				if err != nil {
					return nil, err
				}
				return c.Create(ctx, userID, args.Int64("customer_id"), crm.MeetingInput{
					Name:            args.String("name"),
					Description:     args.String("description"),
					Date:            date,
					DurationMinutes: int(args.Int64("duration_minutes")),
					Status:          args.String("status"),
					Address:         args.String("address"),
					OpportunityID:   args.Int64("opportunity_id"),
					ContactIDs:      contactIDs,
				})
			},
		},
		{
			Name: "get_all_meets",
			Doc: `List meetings, optionally filtered by customer company and date range.

Args:
- customer_id: only return meetings with this customer; omit for all meetings
- start_date: only return meetings on or after this date, format YYYY-MM-DDTHH:MM:SS
- end_date: only return meetings before this date, format YYYY-MM-DDTHH:MM:SS

Returns:
- list: the matching meetings`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt, Optional: true},
				{Name: "start_date", Type: TypeDateTime, Optional: true},
				{Name: "end_date", Type: TypeDateTime, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				from, err := args.OptTime("start_date")
				if err != nil {
					return nil, err
				}
				to, err := args.OptTime("end_date")
				if err != nil {
					return nil, err
				}
				return c.List(ctx, userID, args.Int64("customer_id"), from, to)
			},
		},
		{
			Name: "get_meet_by_id",
			Doc: `Fetch a single meeting by its numeric id.

Args:
- meet_id: the id of the meeting

Returns:
- dict: the meeting, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "meet_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Get(ctx, userID, args.Int64("meet_id"))
			},
		},
		{
			Name: "update_meet",
			Doc: `Update one or more fields of a meeting. Only the provided fields change.

Args:
- meet_id: the id of the meeting to update
- name: the new name
- date: the new date, format YYYY-MM-DDTHH:MM:SS
- duration_minutes: the new duration in minutes
- status: the new status, one of pending, completed or cancelled
- description: the new description
- address: the new address
- opportunity_id: the id of the related sales opportunity
- contact_ids_to_add: comma separated ids of contacts to add to the meeting
- contact_ids_to_remove: comma separated ids of contacts to remove from the meeting

Returns:
- dict: the updated meeting, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "meet_id", Type: TypeInt},
				{Name: "name", Type: TypeString, Optional: true},
				{Name: "date", Type: TypeDateTime, Optional: true},
				{Name: "duration_minutes", Type: TypeInt, Optional: true},
				{Name: "status", Type: TypeString, Optional: true},
				{Name: "description", Type: TypeString, Optional: true},
				{Name: "address", Type: TypeString, Optional: true},
				{Name: "opportunity_id", Type: TypeInt, Optional: true},
				{Name: "contact_ids_to_add", Type: TypeString, Optional: true},
				{Name: "contact_ids_to_remove", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				date, err := args.OptTime("date")
				if err != nil {
					return nil, err
				}
				toAdd, err := ParseIDList(args.String("contact_ids_to_add"))
				if err != nil {
					return nil, err
				}
				toRemove, err := ParseIDList(args.String("contact_ids_to_remove"))
				if err != nil {
					return nil, err
				}
				return c.Update(ctx, userID, args.Int64("meet_id"), crm.MeetingUpdate{
					Name:             args.OptString("name"),
					Description:      args.OptString("description"),
					Date:             date,
					DurationMinutes:  args.OptInt64("duration_minutes"),
					Status:           args.OptString("status"),
					Address:          args.OptString("address"),
					OpportunityID:    args.OptInt64("opportunity_id"),
					ContactsToAdd:    toAdd,
					ContactsToRemove: toRemove,
				})
			},
		},
		{
			Name: "delete_meet",
			Doc: `Delete a meeting by id.

Args:
- meet_id: the id of the meeting to delete

Returns:
- dict: the deleted meeting, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "meet_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Delete(ctx, userID, args.Int64("meet_id"))
			},
		},
	}
}
