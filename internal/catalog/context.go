package catalog

import "context"

type contextKey string

const productCtxKey contextKey = "product"

func SetProductInContext(ctx context.Context, p *Product) context.Context {
	return context.WithValue(ctx, productCtxKey, p)
}

func GetProductFromContext(ctx context.Context) *Product {
	p, _ := ctx.Value(productCtxKey).(*Product)
	return p
}
