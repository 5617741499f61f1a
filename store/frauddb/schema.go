package frauddb

// Schema returns the documented description of the fraud_transactions table
// used to constrain query generation. Kept as prose rather than introspected
// DDL so the prompt stays stable across reloads.
func (s *Store) Schema() string {
	return schemaDescription
}

const schemaDescription = `Table: fraud_transactions
Columns:
  - row_index (BIGINT): Original row index
  - trans_date_trans_time (TIMESTAMP): Transaction datetime
  - cc_num (BIGINT): Credit card number
  - merchant (TEXT): Merchant name (prefixed with 'fraud_')
  - category (TEXT): Transaction category (e.g., 'misc_net', 'grocery_pos', 'shopping_net')
  - amt (DOUBLE PRECISION): Transaction amount in USD
  - first (TEXT): Cardholder first name
  - last (TEXT): Cardholder last name
  - gender (TEXT): Cardholder gender ('M' or 'F')
  - street (TEXT): Cardholder street address
  - city (TEXT): Cardholder city
  - state (TEXT): Cardholder state (2-letter code)
  - zip (INTEGER): Cardholder ZIP code
  - lat (DOUBLE PRECISION): Cardholder latitude
  - long (DOUBLE PRECISION): Cardholder longitude
  - city_pop (INTEGER): City population
  - job (TEXT): Cardholder job title
  - dob (DATE): Date of birth
  - trans_num (TEXT): Unique transaction ID
  - unix_time (BIGINT): Unix timestamp
  - merch_lat (DOUBLE PRECISION): Merchant latitude
  - merch_long (DOUBLE PRECISION): Merchant longitude
  - is_fraud (INTEGER): 1 = fraudulent, 0 = legitimate

Date range: 2019-01-01 to 2020-12-31
Use to_char() for date grouping. Example: to_char(trans_date_trans_time, 'YYYY-MM')
Note: "first", "last", "long" and "zip" must be double-quoted in queries.`
