package tool

import (
	"context"

	"binna-crm/internal/usecase/crm"
)

// opportunitySpecs binds the sales opportunity tools.
func opportunitySpecs(c *crm.Opportunities) []FuncSpec {
	return []FuncSpec{
		{
			Name: "create_opportunity",
			Doc: `Create a sales opportunity under a customer company.

Args:
- customer_id: the id of the customer the opportunity belongs to
- product: the product or service being offered
- close_date: expected closing date, format YYYY-MM-DDTHH:MM:SS
- price: the expected deal value
- stage: the current sales stage
- notes: free-form notes about the opportunity

Returns:
- dict: the created opportunity`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
				{Name: "product", Type: TypeString, Optional: true},
				{Name: "close_date", Type: TypeDateTime, Optional: true},
				{Name: "price", Type: TypeFloat, Optional: true},
				{Name: "stage", Type: TypeString, Optional: true},
				{Name: "notes", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				closeDate, err := args.OptTime("close_date")
				if err != nil {
					return nil, err
				}
				var price float64
				if p := args.OptFloat("price"); p != nil {
					price = *p
				}
				return c.Create(ctx, userID, args.Int64("customer_id"), crm.OpportunityInput{
					Product:   args.String("product"),
					CloseDate: closeDate,
					Price:     price,
					Stage:     args.String("stage"),
					Notes:     args.String("notes"),
				})
			},
		},
		{
			Name: "get_all_opportunities",
			Doc: `List sales opportunities, optionally filtered by customer company.

Args:
- customer_id: only return opportunities of this customer; omit for all opportunities

Returns:
- list: the matching opportunities`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.List(ctx, userID, args.Int64("customer_id"))
			},
		},
		{
			Name: "get_opportunity_by_id",
			Doc: `Fetch a single sales opportunity by its numeric id.

Args:
- opportunity_id: the id of the opportunity

Returns:
- dict: the opportunity, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "opportunity_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Get(ctx, userID, args.Int64("opportunity_id"))
			},
		},
		{
			Name: "update_opportunity",
			Doc: `Update one or more fields of a sales opportunity. Only the provided fields change.

Args:
- opportunity_id: the id of the opportunity to update
- product: the new product or service
- close_date: the new expected closing date, format YYYY-MM-DDTHH:MM:SS
- price: the new deal value
- stage: the new sales stage
- notes: the new notes

Returns:
- dict: the updated opportunity, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "opportunity_id", Type: TypeInt},
				{Name: "product", Type: TypeString, Optional: true},
				{Name: "close_date", Type: TypeDateTime, Optional: true},
				{Name: "price", Type: TypeFloat, Optional: true},
				{Name: "stage", Type: TypeString, Optional: true},
				{Name: "notes", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				closeDate, err := args.OptTime("close_date")
				if err != nil {
					return nil, err
				}
				return c.Update(ctx, userID, args.Int64("opportunity_id"), crm.OpportunityUpdate{
					Product:   args.OptString("product"),
					CloseDate: closeDate,
					Price:     args.OptFloat("price"),
					Stage:     args.OptString("stage"),
					Notes:     args.OptString("notes"),
				})
			},
		},
		{
			Name: "delete_opportunity",
			Doc: `Delete a sales opportunity by id.

Args:
- opportunity_id: the id of the opportunity to delete

Returns:
- dict: the deleted opportunity, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "opportunity_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Delete(ctx, userID, args.Int64("opportunity_id"))
			},
		},
	}
}
