package paper

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	client_order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	type TEXT NOT NULL,
	qty REAL NOT NULL,
	filled_qty REAL NOT NULL,
	filled_avg_price REAL NOT NULL,
	time_in_force TEXT NOT NULL,
	status TEXT NOT NULL,
	filled_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`
