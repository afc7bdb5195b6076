// Package ai backs the admin dashboard assistant: a Gemini model with one
// tool, a read-only SQL query against a separate read-only connection pool.
package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Assistant holds the Gemini client and the read-only database connection.
type Assistant struct {
	Client *genai.Client
	DB     *sql.DB
}

// NewAssistant initializes the Gemini client against the read-only pool.
func NewAssistant(apiKey string, dbReadOnly *sql.DB) (*Assistant, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Assistant{Client: client, DB: dbReadOnly}, nil
}

// Answer runs one question through the model, resolving run_readonly_sql tool
// calls until the model produces text.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	model := a.Client.GenerativeModel("gemini-1.5-flash")

	sqlTool := &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "run_readonly_sql",
				Description: "Executes a READ-ONLY SQL query (SELECT only) to answer questions about the store.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "The PostgreSQL SELECT query to execute.",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
	model.Tools = []*genai.Tool{sqlTool}

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(`
			You are the Lunaria back-office assistant for a clothing store.
			Access: PostgreSQL database (run_readonly_sql).
			Amounts are integer centavos; present them as pesos.
			Schema: %s
			Rules: SELECT only. Be concise. Answer in the language of the question.
		`, schemaDefinition))},
	}

	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(question))
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", err)
	}

	for {
		if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
			return "No response.", nil
		}
		part := res.Candidates[0].Content.Parts[0]

		funcCall, ok := part.(genai.FunctionCall)
		if !ok {
			return fmt.Sprintf("%v", part), nil
		}

		if funcCall.Name != "run_readonly_sql" {
			return "", fmt.Errorf("unknown function: %s", funcCall.Name)
		}

		query, ok := funcCall.Args["query"].(string)
		if !ok {
			return "", fmt.Errorf("invalid query argument")
		}
		log.Printf("assistant running SQL: %s", query)

		sqlResult, sqlErr := a.runReadOnlyQuery(query)
		if sqlErr != nil {
			sqlResult = fmt.Sprintf("SQL Error: %v", sqlErr)
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     "run_readonly_sql",
			Response: map[string]interface{}{"result": sqlResult},
		})
		if err != nil {
			return "", fmt.Errorf("tool response error: %w", err)
		}
	}
}

// runReadOnlyQuery executes a SELECT on the read-only pool and returns the
// rows as JSON for the model to read.
func (a *Assistant) runReadOnlyQuery(query string) (string, error) {
	normalized := strings.ToUpper(query)
	for _, verb := range []string{"UPDATE", "DELETE", "DROP", "INSERT", "ALTER", "TRUNCATE"} {
		if strings.Contains(normalized, verb) {
			return "", fmt.Errorf("security violation: modify operations are not allowed")
		}
	}

	rows, err := a.DB.Query(query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, _ := rows.Columns()
	count := len(columns)
	tableData := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, count)
		valuePtrs := make([]interface{}, count)
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		rows.Scan(valuePtrs...)
		entry := make(map[string]interface{})
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		tableData = append(tableData, entry)
	}

	jsonData, err := json.Marshal(tableData)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

const schemaDefinition = `
	- products (id, sku, name, slug, description, price, status [active, draft, archived], category_id, main_image, gallery, featured, variants, created_at)
	- categories (id, name, slug, description, image, status [active, draft, archived])
	- customers (id, email, name, phone, street, ext_number, colonia, city, state, postal_code, created_at)
	- orders (id, order_number, customer_id, customer_email, customer_name, status [pending, paid, confirmed, processing, shipped, delivered, cancelled, refunded], subtotal, shipping, tax, total, shipping_address, notes, created_at)
	- order_items (id, order_id, product_id, product_name, product_sku, quantity, unit_price, total_price, variant_size, variant_color)
	- admin_users (id, email, name, role [admin, manager])
	`
