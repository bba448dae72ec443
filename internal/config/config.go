package config

import (
	"WaReply/internal/lib/validate"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"os"
	"time"
)

type Config struct {
	Env    string `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port   string `yaml:"port" env:"PORT" env-default:"3000" validate:"required,numeric"`
		ApiKey string `yaml:"key" env:"MONITOR_KEY" env-default:""`
	} `yaml:"listen"`
	WhatsApp struct {
		AccessToken   string `yaml:"access_token" env:"WHATSAPP_TOKEN" env-default:""`
		PhoneNumberID string `yaml:"phone_number_id" env:"PHONE_ID" env-default:""`
		VerifyToken   string `yaml:"verify_token" env:"VERIFY_TOKEN" env-default:"123456" validate:"required"`
		GraphURL      string `yaml:"graph_url" env:"GRAPH_URL" env-default:"https://graph.facebook.com" validate:"required,url"`
		APIVersion    string `yaml:"api_version" env:"GRAPH_API_VERSION" env-default:"v22.0" validate:"required"`
		Timeout       int    `yaml:"timeout" env:"WHATSAPP_TIMEOUT" env-default:"10" validate:"gt=0"`
	} `yaml:"whatsapp"`
	Greeting struct {
		Phrases []string `yaml:"phrases" env:"GREETING_PHRASES" env-separator:"," env-default:"hola,holi,holaa,buenas,buenos días,buenas tardes,buenas noches" validate:"required,min=1,dive,required"`
		Reply   string   `yaml:"reply" env:"GREETING_REPLY" env-default:"Hola buenas tardes, gracias por usar el servicio de atención a cliente. ¿En qué puedo ayudarte hoy?" validate:"required"`
	} `yaml:"greeting"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"wareply"`
	} `yaml:"mongo"`
	Telegram struct {
		Enabled    bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
		ApiKey     string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId    int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		BotName    string `yaml:"bot_name" env:"TELEGRAM_BOT_NAME" env-default:"WaReplyBot"`
		AlertLevel string `yaml:"alert_level" env:"TELEGRAM_ALERT_LEVEL" env-default:"error" validate:"oneof=debug info warn error"`
	} `yaml:"telegram"`
}

// Load reads the YAML file at path with environment overrides. A missing
// file is not an error: the configuration then comes from the environment.
func Load(path string) (*Config, error) {
	conf := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, conf)
	} else {
		err = cleanenv.ReadEnv(conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("%s; %s", err, desc)
	}

	if err = validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return conf, nil
}

func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return conf
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.WhatsApp.Timeout) * time.Second
}
