package sqlinline

const QDeleteOTPsByEmail = `--sql 281acf29-2930-49dd-87ae-aa3956d9e565
delete from email_otps
where email = lower($1::text);
`

const QInsertOTP = `--sql 15e24e55-0afa-465e-b5bc-f814d6ea429d
insert into email_otps (id, email, code_hash, expires_at, created_at)
values (gen_random_uuid(), lower($1::text), $2::text, $3::timestamptz, now())
returning id, email, code_hash, expires_at, consumed_at, created_at;
`

const QSelectLatestActiveOTP = `--sql 11b6105a-264e-4fbf-967f-3208a37b859f
select id, email, code_hash, expires_at, consumed_at, created_at
from email_otps
where email = lower($1::text)
  and consumed_at is null
  and expires_at > $2::timestamptz
order by created_at desc
limit 1;
`

const QConsumeOTP = `--sql 9ad90f44-dcfe-4da2-9189-ba2f8eaf58d7
update email_otps
set consumed_at = now()
where id = $1::uuid
  and consumed_at is null;
`

const QDeleteResetTokensByEmail = `--sql 61c593e8-4f8b-487f-ba9d-34b3c7c60796
delete from password_reset_tokens
where email = lower($1::text);
`

const QInsertResetToken = `--sql 0ba3584d-7d68-44a7-9547-a23a0bbd30b9
insert into password_reset_tokens (id, email, token_hash, expires_at, created_at)
values (gen_random_uuid(), lower($1::text), $2::text, $3::timestamptz, now())
returning id, email, token_hash, expires_at, consumed_at, created_at;
`

const QConsumeResetToken = `--sql 33c13f0f-658a-491d-b3cd-6affbca358f3
update password_reset_tokens
set consumed_at = now()
where token_hash = $1::text
  and consumed_at is null
  and expires_at > $2::timestamptz
returning id, email, token_hash, expires_at, consumed_at, created_at;
`

const QDeleteResetToken = `--sql 4844b047-0103-407e-b798-c1ebdb3db67f
delete from password_reset_tokens
where id = $1::uuid;
`

const QSweepExpiredOTPs = `--sql 4b3b2cb0-3c60-4070-84d1-52625b1cab48
delete from email_otps
where expires_at <= $1::timestamptz
   or consumed_at is not null;
`

const QSweepExpiredResetTokens = `--sql e02fac3f-de01-4428-9493-f0e6df54779a
delete from password_reset_tokens
where expires_at <= $1::timestamptz
   or consumed_at is not null;
`
