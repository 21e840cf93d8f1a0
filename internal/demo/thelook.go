package demo

import "text2sql-context/internal/adapter"

// TheLookSource 内置的 theLook 电商示例模式。
// 库表不带外键约束，表间关系全部依赖命名推断。
func TheLookSource() *adapter.StaticSource {
	meta := &adapter.SchemaMetadata{Tables: []adapter.Table{
		{Name: "distribution_centers", Columns: []adapter.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "name", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "latitude", DataType: "float", Nullable: true},
			{Name: "longitude", DataType: "float", Nullable: true},
		}},
		{Name: "events", Columns: []adapter.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "user_id", DataType: "int", Nullable: true},
			{Name: "sequence_number", DataType: "int", Nullable: true},
			{Name: "session_id", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "created_at", DataType: "timestamp", Nullable: true},
			{Name: "ip_address", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "city", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "state", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "postal_code", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "browser", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "traffic_source", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "uri", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "event_type", DataType: "varchar", Length: 255, Nullable: true},
		}},
		{Name: "inventory_items", Columns: []adapter.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "product_id", DataType: "int", Nullable: true},
			{Name: "created_at", DataType: "timestamp", Nullable: true},
			{Name: "sold_at", DataType: "timestamp", Nullable: true},
			{Name: "cost", DataType: "float", Nullable: true},
			{Name: "product_category", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "product_name", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "product_brand", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "product_retail_price", DataType: "float", Nullable: true},
			{Name: "product_department", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "product_sku", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "product_distribution_center_id", DataType: "int", Nullable: true},
		}},
		{Name: "order_items", Columns: []adapter.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "order_id", DataType: "int", Nullable: true},
			{Name: "user_id", DataType: "int", Nullable: true},
			{Name: "product_id", DataType: "int", Nullable: true},
			{Name: "inventory_item_id", DataType: "int", Nullable: true},
			{Name: "status", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "created_at", DataType: "timestamp", Nullable: true},
			{Name: "shipped_at", DataType: "timestamp", Nullable: true},
			{Name: "delivered_at", DataType: "timestamp", Nullable: true},
			{Name: "returned_at", DataType: "timestamp", Nullable: true},
			{Name: "sale_price", DataType: "float", Nullable: true},
		}},
		{Name: "orders", Columns: []adapter.Column{
			{Name: "order_id", DataType: "int", IsPrimaryKey: true},
			{Name: "user_id", DataType: "int", Nullable: true},
			{Name: "status", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "gender", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "created_at", DataType: "timestamp", Nullable: true},
			{Name: "returned_at", DataType: "timestamp", Nullable: true},
			{Name: "shipped_at", DataType: "timestamp", Nullable: true},
			{Name: "delivered_at", DataType: "timestamp", Nullable: true},
			{Name: "num_of_item", DataType: "int", Nullable: true},
		}},
		{Name: "products", Columns: []adapter.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "cost", DataType: "float", Nullable: true},
			{Name: "category", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "name", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "brand", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "retail_price", DataType: "float", Nullable: true},
			{Name: "department", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "sku", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "distribution_center_id", DataType: "int", Nullable: true},
		}},
		{Name: "users", Columns: []adapter.Column{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "first_name", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "last_name", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "email", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "age", DataType: "int", Nullable: true},
			{Name: "gender", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "state", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "street_address", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "postal_code", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "city", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "country", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "latitude", DataType: "float", Nullable: true},
			{Name: "longitude", DataType: "float", Nullable: true},
			{Name: "traffic_source", DataType: "varchar", Length: 255, Nullable: true},
			{Name: "created_at", DataType: "timestamp", Nullable: true},
		}},
	}}
	return adapter.NewStaticSource(meta, nil)
}

// Query 示例查询历史条目
type Query struct {
	Question string
	SQL      string
	Result   string
}

// History 演示用的查询历史
func History() []Query {
	return []Query{
		{
			Question: "What is the total revenue this month",
			SQL:      "SELECT SUM(sale_price) FROM order_items WHERE created_at >= date('now', 'start of month')",
			Result:   "1 row",
		},
		{
			Question: "Show me total sales by state",
			SQL:      "SELECT u.state, SUM(oi.sale_price) AS total_sales FROM order_items oi JOIN users u ON oi.user_id = u.id GROUP BY u.state ORDER BY total_sales DESC",
			Result:   "50 rows",
		},
		{
			Question: "Top 10 products by revenue",
			SQL:      "SELECT p.name, SUM(oi.sale_price) AS revenue FROM order_items oi JOIN products p ON oi.product_id = p.id GROUP BY p.name ORDER BY revenue DESC LIMIT 10",
			Result:   "10 rows",
		},
		{
			Question: "How many orders were returned",
			SQL:      "SELECT COUNT(*) FROM orders WHERE returned_at IS NOT NULL",
			Result:   "1 row",
		},
		{
			Question: "Average order value by traffic source",
			SQL:      "SELECT u.traffic_source, AVG(oi.sale_price) FROM order_items oi JOIN users u ON oi.user_id = u.id GROUP BY u.traffic_source",
			Result:   "5 rows",
		},
	}
}
