package tool

import (
	"context"

	"binna-crm/internal/usecase/crm"
)

// customerSpecs binds the customer establishment tools.
func customerSpecs(c *crm.Establishments) []FuncSpec {
	return []FuncSpec{
		{
			Name: "create_customer",
			Doc: `Create a new customer company for the current user.

Args:
- name: the customer company name
- description: short description of what the company does
- industry: the industry the company operates in

Returns:
- dict: the created customer, or the already registered customer when one with a similar name exists`,
			Params: []ParamSpec{
				{Name: "name", Type: TypeString},
				{Name: "description", Type: TypeString},
				{Name: "industry", Type: TypeString},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Create(ctx, userID, args.String("name"), args.String("description"), args.String("industry"))
			},
		},
		{
			Name: "get_all_customers",
			Doc: `List every customer company registered by the current user.

Returns:
- list: all of the user's customers with their ids and details`,
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.List(ctx, userID)
			},
		},
		{
			Name: "get_customer_by_id",
			Doc: `Fetch a single customer company by its numeric id.

Args:
- customer_id: the id of the customer

Returns:
- dict: the customer, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Get(ctx, userID, args.Int64("customer_id"))
			},
		},
		{
			Name: "get_customer_by_name",
			Doc: `Fetch a single customer company by name.

Args:
- name: the customer company name to look for
- use_fuzzy_search: when true, also match names containing the given text ignoring case

Returns:
- dict: the matching customer, or nothing when no customer matches`,
			Params: []ParamSpec{
				{Name: "name", Type: TypeString},
				{Name: "use_fuzzy_search", Type: TypeBool, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.GetByName(ctx, userID, args.String("name"), args.Bool("use_fuzzy_search"))
			},
		},
		{
			Name: "update_customer",
			Doc: `Update one or more fields of a customer company. Only the provided fields change.

Args:
- customer_id: the id of the customer to update
- name: the new company name
- description: the new description
- industry: the new industry

Returns:
- dict: the updated customer, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
				{Name: "name", Type: TypeString, Optional: true},
				{Name: "description", Type: TypeString, Optional: true},
				{Name: "industry", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Update(ctx, userID, args.Int64("customer_id"), crm.EstablishmentUpdate{
					Name:        args.OptString("name"),
					Description: args.OptString("description"),
					Industry:    args.OptString("industry"),
				})
			},
		},
		{
			Name: "delete_customer",
			Doc: `Delete a customer company by id.

Args:
- customer_id: the id of the customer to delete

Returns:
- dict: the deleted customer, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Delete(ctx, userID, args.Int64("customer_id"))
			},
		},
	}
}
