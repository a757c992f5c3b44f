package tool

import (
	"context"

	"binna-crm/internal/usecase/crm"
)

// contactSpecs binds the contact tools.
func contactSpecs(c *crm.Contacts) []FuncSpec {
	return []FuncSpec{
		{
			Name: "create_contact",
			Doc: `Create a contact person under a customer company.

Args:
- customer_id: the id of the customer the contact belongs to
- name: the contact's full name
- role: the contact's role at the company
- email: the contact's email address
- phone: the contact's phone number

Returns:
- dict: the created contact`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
				{Name: "name", Type: TypeString},
				{Name: "role", Type: TypeString},
				{Name: "email", Type: TypeString},
				{Name: "phone", Type: TypeString},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Create(ctx, userID, args.Int64("customer_id"),
					args.String("name"), args.String("role"), args.String("email"), args.String("phone"))
			},
		},
		{
			Name: "get_all_contacts",
			Doc: `List contacts, optionally filtered by customer company.

Args:
- customer_id: only return contacts of this customer; omit for all contacts

Returns:
- list: the matching contacts`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.List(ctx, userID, args.Int64("customer_id"))
			},
		},
		{
			Name: "get_contact_by_id",
			Doc: `Fetch a single contact by its numeric id.

Args:
- contact_id: the id of the contact

Returns:
- dict: the contact, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "contact_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Get(ctx, userID, args.Int64("contact_id"))
			},
		},
		{
			Name: "update_contact",
			Doc: `Update one or more fields of a contact. Only the provided fields change.

Args:
- contact_id: the id of the contact to update
- name: the new name
- role: the new role
- email: the new email address
- phone: the new phone number

Returns:
- dict: the updated contact, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "contact_id", Type: TypeInt},
				{Name: "name", Type: TypeString, Optional: true},
				{Name: "role", Type: TypeString, Optional: true},
				{Name: "email", Type: TypeString, Optional: true},
				{Name: "phone", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Update(ctx, userID, args.Int64("contact_id"), crm.ContactUpdate{
					Name:  args.OptString("name"),
					Role:  args.OptString("role"),
					Email: args.OptString("email"),
					Phone: args.OptString("phone"),
				})
			},
		},
		{
			Name: "delete_contact",
			Doc: `Delete a contact by id.

Args:
- contact_id: the id of the contact to delete

Returns:
- dict: the deleted contact, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "contact_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Delete(ctx, userID, args.Int64("contact_id"))
			},
		},
	}
}
