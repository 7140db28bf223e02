package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedStaff(db)
	seedProducts(db)
	seedKits(db)

	log.Println("Seeding completed successfully!")
}

func seedStaff(db *sql.DB) {
	log.Println("Seeding staff users...")
	password := os.Getenv("SEED_STAFF_PASSWORD")
	if password == "" {
		password = "trocar-no-primeiro-login"
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash staff password: %v", err)
	}

	staff := []struct {
		Name  string
		Email string
	}{
		{"Administrador", "admin@atacadocell.com.br"},
		{"Vendas", "vendas@atacadocell.com.br"},
	}
	for _, s := range staff {
		_, err := db.Exec(`
			INSERT INTO staff_users (id, email, name, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING`,
			uuid.NewString(), s.Email, s.Name, hash)
		if err != nil {
			log.Printf("Failed to seed staff %s: %v", s.Email, err)
		}
	}
}

type seedProduct struct {
	Name          string
	Slug          string
	Category      string
	Price         int64
	SpecialPrice  int64
	SpecialMinQty int
}

var products = []seedProduct{
	{"Capinha Transparente Anti-Impacto", "capinha-transparente-anti-impacto", "capinhas", 1000, 800, 30},
	{"Capinha Silicone Colorida", "capinha-silicone-colorida", "capinhas", 1200, 950, 30},
	{"Película 3D Vidro Temperado", "pelicula-3d-vidro-temperado", "peliculas", 800, 600, 50},
	{"Película Privacidade", "pelicula-privacidade", "peliculas", 1500, 1200, 30},
	{"Cabo USB-C Turbo 1m", "cabo-usb-c-turbo-1m", "cabos", 1500, 1100, 20},
	{"Cabo Lightning 2m", "cabo-lightning-2m", "cabos", 2000, 1600, 20},
	{"Carregador Turbo 20W", "carregador-turbo-20w", "carregadores", 3500, 2800, 10},
	{"Fone Bluetooth TWS", "fone-bluetooth-tws", "fones", 4500, 3600, 10},
	{"Fone com Fio P2", "fone-com-fio-p2", "fones", 1200, 900, 30},
	{"Suporte Veicular Magnético", "suporte-veicular-magnetico", "acessorios", 2500, 0, 0},
}

func seedProducts(db *sql.DB) {
	log.Println("Seeding products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (name, slug, category, price, special_price, special_min_qty)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (slug) DO UPDATE
			SET name = EXCLUDED.name, category = EXCLUDED.category,
			    price = EXCLUDED.price, special_price = EXCLUDED.special_price,
			    special_min_qty = EXCLUDED.special_min_qty`,
			p.Name, p.Slug, p.Category, p.Price, p.SpecialPrice, p.SpecialMinQty)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Slug, err)
		}
	}
}

func seedKits(db *sql.DB) {
	log.Println("Seeding kits...")
	kits := []struct {
		Name  string
		Slug  string
		Items map[string]int
	}{
		{
			Name: "Kit Revenda Iniciante",
			Slug: "kit-revenda-iniciante",
			Items: map[string]int{
				"capinha-transparente-anti-impacto": 30,
				"pelicula-3d-vidro-temperado":       50,
				"cabo-usb-c-turbo-1m":               20,
			},
		},
		{
			Name: "Kit Fones e Carregadores",
			Slug: "kit-fones-e-carregadores",
			Items: map[string]int{
				"fone-bluetooth-tws":   10,
				"carregador-turbo-20w": 10,
			},
		},
	}

	for _, k := range kits {
		var kitID int64
		err := db.QueryRow(`
			INSERT INTO kits (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, k.Name, k.Slug).Scan(&kitID)
		if err != nil {
			log.Printf("Failed to seed kit %s: %v", k.Slug, err)
			continue
		}
		for slug, qty := range k.Items {
			_, err := db.Exec(`
				INSERT INTO kit_items (kit_id, product_id, qty)
				SELECT $1, id, $2 FROM products WHERE slug = $3
				ON CONFLICT (kit_id, product_id) DO UPDATE SET qty = EXCLUDED.qty`,
				kitID, qty, slug)
			if err != nil {
				log.Printf("Failed to seed kit item %s/%s: %v", k.Slug, slug, err)
			}
		}
	}
}
